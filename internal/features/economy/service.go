// Package economy: service.go содержит бизнес-логику экономики:
// валидацию сумм, переводы, штрафы и историю транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/common"
)

// Store: то, что сервису нужно от хранилища.
type Store interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) error
	DebitFine(ctx context.Context, userID int64, amount decimal.Decimal, description string) error
	Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal, description string) error
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// Service управляет движением баланса.
type Service struct {
	store Store
}

// NewService создаёт новый сервис экономики.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// validAmount: положительная, не больше двух знаков.
func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !common.IsMoney(amount) {
		return common.ErrInvalidAmount
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.GetBalance(ctx, userID)
}

// Grant начисляет сумму пользователю (административная операция).
func (s *Service) Grant(ctx context.Context, userID int64, amount decimal.Decimal, description string) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	return s.store.Credit(ctx, userID, amount, TxTypeAdminGive, description)
}

// DebitFine списывает штраф автомодерации. Приём контента его не вызывает:
// отклонённая публикация ничего не пишет, штраф назначается отдельно.
func (s *Service) DebitFine(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if err := s.store.DebitFine(ctx, userID, amount, reason); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  common.FormatMoney(amount),
		"reason":  reason,
	}).Info("Штраф списан")
	return nil
}

// Transfer переводит сумму от одного пользователя к другому.
// Проверки:
//   - нельзя переводить себе
//   - сумма положительная, не больше двух знаков
//   - у отправителя хватает баланса (внутри транзакции БД)
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if err := validAmount(amount); err != nil {
		return err
	}

	description := fmt.Sprintf("Перевод %s", common.FormatMoney(amount))
	if err := s.store.Transfer(ctx, fromUserID, toUserID, amount, description); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": common.FormatMoney(amount),
	}).Info("Перевод выполнен")
	return nil
}

// GetTransactionHistory возвращает последние 10 транзакций текстом, по строке на операцию.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.store.GetTransactions(ctx, userID, 10)
	if err != nil {
		return "", err
	}
	if len(transactions) == 0 {
		return "Транзакций пока нет\n", nil
	}

	var sb strings.Builder
	for i, tx := range transactions {
		// минус, если отправили мы
		amount := tx.Amount
		if tx.FromUserID != nil && *tx.FromUserID == userID {
			amount = amount.Neg()
		}
		fmt.Fprintf(&sb, "%d. %s | %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			common.FormatSignedMoney(amount),
			tx.TransactionType,
			tx.Description,
		)
	}
	return sb.String(), nil
}
