// Package chambers: repository.go выполняет операции с таблицей chambers.
package chambers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
)

// uniqueViolation: код ошибки PostgreSQL для нарушения UNIQUE.
const uniqueViolation = "23505"

// Repository работает с таблицей chambers.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий палат.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Columns: список колонок для SELECT, общий с listing.
const Columns = `
	c.id, c.name, c.display_name, c.description, c.owner_id, c.balance::text,
	c.min_thread_balance::text, c.min_comment_balance::text, c.automod_can_fine,
	c.max_fine::text, c.automod_slots, c.publish_date, c.rating_sum, c.comments_count`

// Create сохраняет новую палату и возвращает её ID.
func (r *Repository) Create(ctx context.Context, c *Chamber) (int64, error) {
	slots, err := json.Marshal(c.Slots)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации слотов: %w", err)
	}
	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO chambers (name, display_name, description, owner_id, min_thread_balance,
		                      min_comment_balance, automod_can_fine, max_fine, automod_slots, publish_date)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8::numeric, $9, $10)
		RETURNING id
	`, c.Name, c.DisplayName, c.Description, c.OwnerID, c.MinThreadBalance.String(),
		c.MinCommentBalance.String(), c.AutomodCanFine, c.MaxFine.String(), slots, c.PublishDate,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("палата %q: %w", c.Name, common.ErrChamberExists)
		}
		return 0, fmt.Errorf("ошибка создания палаты: %w", err)
	}
	c.ID = id
	return id, nil
}

// UpdateConfig сохраняет экономику и цепочку автомодерации палаты.
func (r *Repository) UpdateConfig(ctx context.Context, c *Chamber) error {
	slots, err := json.Marshal(c.Slots)
	if err != nil {
		return fmt.Errorf("ошибка сериализации слотов: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE chambers
		SET display_name = $2, description = $3, min_thread_balance = $4::numeric,
		    min_comment_balance = $5::numeric, automod_can_fine = $6, max_fine = $7::numeric,
		    automod_slots = $8, updated_at = NOW()
		WHERE name = $1
	`, c.Name, c.DisplayName, c.Description, c.MinThreadBalance.String(),
		c.MinCommentBalance.String(), c.AutomodCanFine, c.MaxFine.String(), slots)
	if err != nil {
		return fmt.Errorf("ошибка обновления палаты: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("палата %q: %w", c.Name, common.ErrChamberNotFound)
	}
	return nil
}

// GetByName: если не найдена: ошибка с common.ErrChamberNotFound.
func (r *Repository) GetByName(ctx context.Context, name string) (*Chamber, error) {
	row := r.db.QueryRow(ctx, `SELECT `+Columns+` FROM chambers c WHERE c.name = LOWER($1)`, name)
	c, err := Scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("палата %q: %w", name, common.ErrChamberNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения палаты %q: %w", name, err)
	}
	return c, nil
}

// Exists проверяет, занято ли имя.
func (r *Repository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM chambers WHERE name = LOWER($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки палаты: %w", err)
	}
	return exists, nil
}

// List возвращает все палаты по имени.
func (r *Repository) List(ctx context.Context) ([]*Chamber, error) {
	rows, err := r.db.Query(ctx, `SELECT `+Columns+` FROM chambers c ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса палат: %w", err)
	}
	defer rows.Close()

	var out []*Chamber
	for rows.Next() {
		c, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования палаты: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Scan читает строку, выбранную с Columns.
func Scan(row pgx.Row) (*Chamber, error) {
	var (
		c                                    Chamber
		balance, minThread, minComment, fine string
		slots                                []byte
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.DisplayName, &c.Description, &c.OwnerID, &balance,
		&minThread, &minComment, &c.AutomodCanFine, &fine, &slots,
		&c.PublishDate, &c.RatingSum, &c.CommentsCount,
	); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&c.Balance, balance},
		{&c.MinThreadBalance, minThread},
		{&c.MinCommentBalance, minComment},
		{&c.MaxFine, fine},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("сумма %q: %w", f.src, err)
		}
		*f.dst = d
	}

	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &c.Slots); err != nil {
			return nil, fmt.Errorf("слоты автомодерации палаты %q: %w", c.Name, err)
		}
	}
	return &c, nil
}
