// Package links: repository.go выполняет операции с таблицами threads и comments.
package links

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// ThreadColumns: колонки для SELECT тредов, общие с listing.
const ThreadColumns = `
	t.id, t.chamber, t.author_id, t.title, t.link, t.normalized_link, t.description,
	t.publish_date, t.rating_sum, t.comments_count`

// CommentColumns: колонки для SELECT комментариев.
const CommentColumns = `
	c.id, c.thread_id, c.chamber, c.author_id, c.body, c.submit_date, c.rating_sum`

// CreateThread сохраняет тред и заполняет ID.
func (r *Repository) CreateThread(ctx context.Context, t *Thread) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO threads (chamber, author_id, title, link, normalized_link, description, publish_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, t.Chamber, t.AuthorID, t.Title, t.Link, t.NormalizedLink, t.Description, t.PublishDate).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания треда: %w", err)
	}
	return nil
}

// CreateComment сохраняет комментарий и увеличивает comments_count треда и палаты.
func (r *Repository) CreateComment(ctx context.Context, c *Comment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO comments (thread_id, chamber, author_id, body, submit_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.ThreadID, c.Chamber, c.AuthorID, c.Body, c.SubmitDate).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания комментария: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE threads SET comments_count = comments_count + 1 WHERE id = $1`, c.ThreadID); err != nil {
		return fmt.Errorf("ошибка обновления треда: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE chambers SET comments_count = comments_count + 1 WHERE name = $1`, c.Chamber); err != nil {
		return fmt.Errorf("ошибка обновления палаты: %w", err)
	}
	return tx.Commit(ctx)
}

// GetThread: если не найден: ошибка с common.ErrContentNotFound.
func (r *Repository) GetThread(ctx context.Context, id int64) (*Thread, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ThreadColumns+` FROM threads t WHERE t.id = $1`, id)
	t, err := ScanThread(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("тред %d: %w", id, common.ErrContentNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения треда: %w", err)
	}
	return t, nil
}

// FindRecentByLink ищет тред той же палаты с той же нормализованной ссылкой,
// опубликованный не раньше since.
func (r *Repository) FindRecentByLink(ctx context.Context, chamber, normalizedLink string, since time.Time) (*Thread, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+ThreadColumns+`
		FROM threads t
		WHERE t.chamber = $1 AND t.normalized_link = $2 AND t.publish_date >= $3
		ORDER BY t.publish_date DESC
		LIMIT 1
	`, chamber, normalizedLink, since)
	t, err := ScanThread(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска дубликата: %w", err)
	}
	return t, nil
}

// AuthorOf возвращает автора треда, комментария или владельца палаты.
func (r *Repository) AuthorOf(ctx context.Context, ref karma.ContentRef) (int64, error) {
	var query string
	switch ref.Type {
	case karma.ContentThread:
		query = `SELECT author_id FROM threads WHERE id = $1`
	case karma.ContentComment:
		query = `SELECT author_id FROM comments WHERE id = $1`
	case karma.ContentChamber:
		query = `SELECT owner_id FROM chambers WHERE id = $1`
	default:
		return 0, fmt.Errorf("тип %q: %w", ref.Type, common.ErrContentNotFound)
	}
	var authorID int64
	if err := r.db.QueryRow(ctx, query, ref.ID).Scan(&authorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", ref, common.ErrContentNotFound)
		}
		return 0, fmt.Errorf("ошибка чтения автора %s: %w", ref, err)
	}
	return authorID, nil
}

// ScanThread читает строку, выбранную с ThreadColumns.
func ScanThread(row pgx.Row) (*Thread, error) {
	var t Thread
	err := row.Scan(&t.ID, &t.Chamber, &t.AuthorID, &t.Title, &t.Link, &t.NormalizedLink,
		&t.Description, &t.PublishDate, &t.RatingSum, &t.CommentsCount)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ScanComment читает строку, выбранную с CommentColumns.
func ScanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ThreadID, &c.Chamber, &c.AuthorID, &c.Body, &c.SubmitDate, &c.RatingSum)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
