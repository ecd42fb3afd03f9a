// Package karma: repository.go выполняет операции с таблицами profiles и karma_logs.
package karma

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository хранит карму в profiles.karma и журнал в karma_logs.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кармы.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Apply применяет корректировку в одной транзакции.
// Карма меняется атомарным инкрементом в SQL (karma = karma + $2), без чтения значения в приложение,
// поэтому параллельные голоса за одного автора не теряют обновления.
// Возвращает false, если профиля автора нет.
func (r *Repository) Apply(ctx context.Context, adj Adjustment) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET karma = karma + $2, updated_at = NOW()
		WHERE user_id = $1
	`, adj.AuthorID, adj.Delta)
	if err != nil {
		return false, fmt.Errorf("ошибка изменения кармы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if adj.UpDelta != 0 || adj.DownDelta != 0 {
		_, err = tx.Exec(ctx, `
			UPDATE profiles
			SET total_up_given = GREATEST(total_up_given + $2, 0),
			    total_down_given = GREATEST(total_down_given + $3, 0),
			    updated_at = NOW()
			WHERE user_id = $1
		`, adj.VoterID, adj.UpDelta, adj.DownDelta)
		if err != nil {
			return false, fmt.Errorf("ошибка счётчиков голосующего: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO karma_logs (from_user_id, to_user_id, content_type, content_id, event_kind, points)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, adj.VoterID, adj.AuthorID, string(adj.Content.Type), adj.Content.ID, string(adj.Kind), adj.Delta)
	if err != nil {
		return false, fmt.Errorf("ошибка записи лога кармы: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GetKarma возвращает карму пользователя.
func (r *Repository) GetKarma(ctx context.Context, userID int64) (int, error) {
	var karma int
	err := r.db.QueryRow(ctx, `SELECT karma FROM profiles WHERE user_id = $1`, userID).Scan(&karma)
	if err != nil {
		return 0, fmt.Errorf("карма не найдена: %w", err)
	}
	return karma, nil
}

// Recount пересчитывает карму всех профилей по текущим (не удалённым) голосам.
// Самоголоса не учитываются. Возвращает число исправленных профилей.
func (r *Repository) Recount(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles p
		SET karma = s.total, updated_at = NOW()
		FROM (
			SELECT pr.user_id,
			       COALESCE((
			           SELECT SUM(rt.value) FROM ratings rt
			           WHERE rt.author_id = pr.user_id AND rt.user_id <> rt.author_id
			       ), 0) AS total
			FROM profiles pr
		) s
		WHERE s.user_id = p.user_id AND p.karma <> s.total
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка пересчёта кармы: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecentLogs возвращает последние N изменений кармы пользователя.
func (r *Repository) RecentLogs(ctx context.Context, userID int64, limit int) ([]*LogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, from_user_id, to_user_id, content_type, content_id, event_kind, points, created_at
		FROM karma_logs
		WHERE to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения лога кармы: %w", err)
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.FromUserID, &e.ToUserID, &e.ContentType, &e.ContentID,
			&e.EventKind, &e.Points, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования лога кармы: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
