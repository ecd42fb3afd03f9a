// Package profiles управляет профилями пользователей: регистрацией,
// стартовым балансом и счётчиками.
// models.go описывает структуру профиля.
package profiles

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Profile: ровно один на пользователя.
// Karma меняется только леджером кармы по событиям голосов, напрямую её не пишет никто.
type Profile struct {
	ID             int64           `db:"id"`
	UserID         int64           `db:"user_id"`          // ID пользователя во внешней системе аккаунтов
	Username       string          `db:"username"`         // Уникальное имя (без учёта регистра)
	Karma          int             `db:"karma"`            // Репутация, только через karma.Ledger
	Balance        decimal.Decimal `db:"balance"`          // Расходуемый баланс, 2 знака
	TotalUpGiven   int             `db:"total_up_given"`   // Сколько плюсов поставил
	TotalDownGiven int             `db:"total_down_given"` // Сколько минусов поставил
	TotalUsersPaid int             `db:"total_users_paid"` // Скольким пользователям платил
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// DisplayName возвращает отображаемое имя вместе с кармой: "alice (12)".
func (p *Profile) DisplayName() string {
	return p.Username + " (" + strconv.Itoa(p.Karma) + ")"
}
