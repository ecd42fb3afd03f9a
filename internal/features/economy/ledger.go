package economy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/profiles"
)

// Ledger сравнивает баланс профиля с порогом действия.
type Ledger struct {
	minChamberBalance decimal.Decimal
}

// NewLedger создаёт леджер. minChamberBalance: глобальный порог создания палаты.
func NewLedger(minChamberBalance decimal.Decimal) *Ledger {
	return &Ledger{minChamberBalance: minChamberBalance}
}

// Required возвращает порог для действия. Для тредов и комментариев нужна палата.
func (l *Ledger) Required(ch *chambers.Chamber, kind ActionKind) (decimal.Decimal, error) {
	switch kind {
	case ActionCreateChamber:
		return l.minChamberBalance, nil
	case ActionCreateThread:
		if ch == nil {
			return decimal.Zero, common.ErrChamberNotFound
		}
		return ch.MinThreadBalance, nil
	case ActionCreateComment:
		if ch == nil {
			return decimal.Zero, common.ErrChamberNotFound
		}
		return ch.MinCommentBalance, nil
	}
	return decimal.Zero, fmt.Errorf("неизвестное действие %q", kind)
}

// CheckSufficient проверяет, хватает ли баланса. Порог включительный:
// баланс, равный порогу, достаточен. Сравнение точное, без float.
func (l *Ledger) CheckSufficient(p *profiles.Profile, ch *chambers.Chamber, kind ActionKind) Check {
	c := Check{Kind: kind, Available: p.Balance}
	if ch != nil {
		c.Chamber = ch.Name
	}
	required, err := l.Required(ch, kind)
	if err != nil {
		c.Err = fmt.Errorf("порог для %q: %w", kind, err)
		return c
	}
	c.Required = required
	c.OK = p.Balance.GreaterThanOrEqual(required)
	return c
}

// Detail: текст отказа для пользователя.
func (c Check) Detail() string {
	if c.OK {
		return ""
	}
	if c.Err != nil {
		return "Balance check failed."
	}
	available := common.FormatMoney(c.Available)
	required := common.FormatMoney(c.Required)
	switch c.Kind {
	case ActionCreateChamber:
		return fmt.Sprintf("Balance (%s) too low to create a chamber. Minimum: %s", available, required)
	case ActionCreateComment:
		return fmt.Sprintf("Balance (%s) too low to comment in '%s'. Minimum: %s", available, c.Chamber, required)
	default:
		return fmt.Sprintf("Balance (%s) too low to create a thread in '%s'. Minimum: %s", available, c.Chamber, required)
	}
}
