// Package postgres: queries.go содержит общие утилиты для выполнения запросов.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExecMigrationSQL выполняет одну миграцию в транзакции и записывает её версию.
// false: миграция уже была применена.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// блокировка: два процесса не должны применять одну миграцию одновременно
	if _, err := tx.Exec(ctx, "LOCK TABLE schema_migrations IN EXCLUSIVE MODE"); err != nil {
		return false, fmt.Errorf("ошибка блокировки таблицы миграций: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	return true, tx.Commit(ctx)
}
