// Package listing: repository.go выбирает страницы лент из БД.
// Сортировка выполняется в базе, в память поднимается только страница.
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/links"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// where собирает условие по заданным фильтрам.
func where(alias string, q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s.%s = $%d", alias, col, len(args)))
	}
	if q.Chamber != "" {
		add("chamber", q.Chamber)
	}
	if q.AuthorID != 0 {
		add("author_id", q.AuthorID)
	}
	if q.ThreadID != 0 && q.Kind == KindComments {
		add("thread_id", q.ThreadID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func paged(query string, args []any, limit, offset int) (string, []any) {
	args = append(args, limit, offset)
	return fmt.Sprintf("%s LIMIT $%d OFFSET $%d", query, len(args)-1, len(args)), args
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Threads возвращает страницу тредов в порядке orderBy.
func (r *Repository) Threads(ctx context.Context, q Query, orderBy string, limit, offset int) ([]*links.Thread, error) {
	cond, args := where("t", q)
	query, args := paged(fmt.Sprintf(`SELECT %s FROM threads t %s %s`, links.ThreadColumns, cond, orderBy), args, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса тредов: %w", err)
	}
	return collect(rows, links.ScanThread)
}

// Comments возвращает страницу комментариев в порядке orderBy.
func (r *Repository) Comments(ctx context.Context, q Query, orderBy string, limit, offset int) ([]*links.Comment, error) {
	cond, args := where("c", q)
	query, args := paged(fmt.Sprintf(`SELECT %s FROM comments c %s %s`, links.CommentColumns, cond, orderBy), args, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса комментариев: %w", err)
	}
	return collect(rows, links.ScanComment)
}

// Chambers возвращает страницу палат в порядке orderBy.
func (r *Repository) Chambers(ctx context.Context, orderBy string, limit, offset int) ([]*chambers.Chamber, error) {
	query, args := paged(fmt.Sprintf(`SELECT %s FROM chambers c %s`, chambers.Columns, orderBy), nil, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса палат: %w", err)
	}
	return collect(rows, chambers.Scan)
}
