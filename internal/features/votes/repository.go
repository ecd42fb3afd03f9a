// Package votes: repository.go выполняет операции с таблицей ratings
// и счётчиками rating_sum оцениваемых объектов.
package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/karma"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// targets: таблица объекта и колонка его автора.
var targets = map[karma.ContentType]struct{ table, author string }{
	karma.ContentThread:  {"threads", "author_id"},
	karma.ContentComment: {"comments", "author_id"},
	karma.ContentChamber: {"chambers", "owner_id"},
}

// Rate применяет голос в одной транзакции: строка объекта блокируется,
// голос создаётся, меняется или удаляется, rating_sum обновляется.
func (r *Repository) Rate(ctx context.Context, voterID int64, ref karma.ContentRef, value int) (Transition, error) {
	target, ok := targets[ref.Type]
	if !ok {
		return Transition{}, fmt.Errorf("тип %q: %w", ref.Type, common.ErrContentNotFound)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Transition{}, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var authorID int64
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, target.author, target.table),
		ref.ID,
	).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transition{}, fmt.Errorf("%s: %w", ref, common.ErrContentNotFound)
		}
		return Transition{}, fmt.Errorf("ошибка чтения объекта: %w", err)
	}

	var previous int
	err = tx.QueryRow(ctx, `
		SELECT value FROM ratings
		WHERE content_type = $1 AND content_id = $2 AND user_id = $3
	`, string(ref.Type), ref.ID, voterID).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Transition{}, fmt.Errorf("ошибка чтения голоса: %w", err)
	}

	kind, sumDelta := Decide(previous, value)
	switch kind {
	case karma.EventCreated:
		_, err = tx.Exec(ctx, `
			INSERT INTO ratings (content_type, content_id, user_id, author_id, value)
			VALUES ($1, $2, $3, $4, $5)
		`, string(ref.Type), ref.ID, voterID, authorID, value)
	case karma.EventChanged:
		_, err = tx.Exec(ctx, `
			UPDATE ratings SET value = $4, created_at = NOW()
			WHERE content_type = $1 AND content_id = $2 AND user_id = $3
		`, string(ref.Type), ref.ID, voterID, value)
	case karma.EventDeleted:
		_, err = tx.Exec(ctx, `
			DELETE FROM ratings
			WHERE content_type = $1 AND content_id = $2 AND user_id = $3
		`, string(ref.Type), ref.ID, voterID)
	}
	if err != nil {
		return Transition{}, fmt.Errorf("ошибка записи голоса: %w", err)
	}

	var sum int
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET rating_sum = rating_sum + $2 WHERE id = $1 RETURNING rating_sum`, target.table),
		ref.ID, sumDelta,
	).Scan(&sum)
	if err != nil {
		return Transition{}, fmt.Errorf("ошибка обновления rating_sum: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Transition{}, fmt.Errorf("ошибка фиксации голоса: %w", err)
	}
	return Transition{Kind: kind, Value: value, AuthorID: authorID, Sum: sum}, nil
}
