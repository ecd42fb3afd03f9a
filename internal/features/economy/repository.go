// Package economy: repository.go выполняет операции с балансами профилей и таблицей transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT balance::text FROM profiles WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, common.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return decimal.NewFromString(raw)
}

// lockBalance блокирует строку профиля (FOR UPDATE) и возвращает баланс.
func lockBalance(ctx context.Context, tx pgx.Tx, userID int64) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `
		SELECT balance::text FROM profiles WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("профиль %d: %w", userID, common.ErrUserNotFound)
		}
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return decimal.NewFromString(raw)
}

// Credit начисляет сумму на счёт пользователя.
func (r *Repository) Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) error {
	// Обновление баланса и запись транзакции должны быть атомарными
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE profiles SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount.String())
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("профиль %d: %w", userID, common.ErrUserNotFound)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (to_user_id, amount, transaction_type, description)
		VALUES ($1, $2::numeric, $3, $4)
	`, userID, amount.String(), txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// DebitFine списывает штраф. Баланс не может стать отрицательным.
func (r *Repository) DebitFine(ctx context.Context, userID int64, amount decimal.Decimal, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}
	if current.LessThan(amount) {
		return fmt.Errorf("нужно %s, есть %s: %w",
			common.FormatMoney(amount), common.FormatMoney(current), common.ErrInsufficientBalance)
	}

	_, err = tx.Exec(ctx, `
		UPDATE profiles SET balance = balance - $2::numeric, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount.String())
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, amount, transaction_type, description)
		VALUES ($1, $2::numeric, $3, $4)
	`, userID, amount.String(), TxTypeFine, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Transfer переводит сумму от одного пользователя к другому
// и увеличивает у отправителя счётчик total_users_paid.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	senderBalance, err := lockBalance(ctx, tx, fromUserID)
	if err != nil {
		return err
	}
	if senderBalance.LessThan(amount) {
		return fmt.Errorf("нужно %s, есть %s: %w",
			common.FormatMoney(amount), common.FormatMoney(senderBalance), common.ErrInsufficientBalance)
	}

	_, err = tx.Exec(ctx, `
		UPDATE profiles
		SET balance = balance - $2::numeric, total_users_paid = total_users_paid + 1, updated_at = NOW()
		WHERE user_id = $1
	`, fromUserID, amount.String())
	if err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE profiles SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE user_id = $1
	`, toUserID, amount.String())
	if err != nil {
		return fmt.Errorf("ошибка начисления получателю: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("получатель %d: %w", toUserID, common.ErrUserNotFound)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3::numeric, $4, $5)
	`, fromUserID, toUserID, amount.String(), TxTypeTransfer, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions возвращает последние N транзакций пользователя,
// входящие и исходящие.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount::text, transaction_type, description, created_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var (
			t      Transaction
			amount string
		)
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("сумма транзакции %d: %w", t.ID, err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
