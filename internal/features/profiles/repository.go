// Package profiles: repository.go отвечает за все операции с таблицей profiles в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const profileColumns = `
	id, user_id, username, karma, balance::text, total_up_given, total_down_given,
	total_users_paid, created_at, updated_at`

// Create добавляет профиль со стартовым балансом.
// На конфликте по user_id обновляет только username (карму и баланс не трогает).
func (r *Repository) Create(ctx context.Context, userID int64, username string, balance decimal.Decimal) error {
	query := `
		INSERT INTO profiles (user_id, username, balance)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, username, balance.String()); err != nil {
		return fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return nil
}

// GetByUserID: если не найден: ошибка с common.ErrUserNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("профиль (user_id=%d): %w", userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения профиля (user_id=%d): %w", userID, err)
	}
	return p, nil
}

// GetByUsername ищет профиль без учёта регистра.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(username) = LOWER($1)`
	p, err := scanProfile(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("профиль (username=%s): %w", username, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения профиля (username=%s): %w", username, err)
	}
	return p, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p       Profile
		balance string
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Username, &p.Karma, &balance,
		&p.TotalUpGiven, &p.TotalDownGiven, &p.TotalUsersPaid,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("баланс %q: %w", balance, err)
	}
	p.Balance = b
	return &p, nil
}
