// Package economy управляет расходуемым балансом профилей:
// проверкой порогов палат, переводами и штрафами.
// models.go описывает транзакции и виды действий.
package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction представляет одно движение баланса.
// Все переводы, штрафы и начисления записываются сюда.
type Transaction struct {
	ID              int64           `db:"id"`
	FromUserID      *int64          `db:"from_user_id"` // nil для системных начислений
	ToUserID        *int64          `db:"to_user_id"`   // nil для штрафов
	Amount          decimal.Decimal `db:"amount"`       // Всегда положительная
	TransactionType string          `db:"transaction_type"`
	Description     string          `db:"description"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Типы транзакций
const (
	TxTypeTransfer  = "transfer"   // Перевод между пользователями
	TxTypeFine      = "fine"       // Штраф автомодерации
	TxTypeAdminGive = "admin_give" // Начисление через drumctl
)

// ActionKind: действие, для которого проверяется баланс.
type ActionKind string

const (
	ActionCreateChamber ActionKind = "create_chamber"
	ActionCreateThread  ActionKind = "create_thread"
	ActionCreateComment ActionKind = "create_comment"
)

// Check: результат проверки баланса. Только чтение, ничего не списывается.
type Check struct {
	OK        bool
	Kind      ActionKind
	Chamber   string
	Required  decimal.Decimal
	Available decimal.Decimal
	Err       error // порог не определён: неизвестное действие или нет палаты
}
