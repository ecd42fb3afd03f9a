// Package postgres управляет подключением к базе данных PostgreSQL.
// Используется пул соединений pgxpool: репозитории всех модулей
// работают через один пул из разных горутин.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/config"
)

// NewPool создаёт пул соединений и проверяет, что база доступна.
//
// Пример:
//
//	pool, err := postgres.NewPool(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithFields(log.Fields{
		"host":      cfg.DBHost,
		"db":        cfg.DBName,
		"max_conns": cfg.DBMaxConns,
	}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// Migration: одна встроенная SQL-миграция.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrate создаёт schema_migrations и применяет непримененные миграции по порядку.
// Возвращает число применённых.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) (int, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		ok, err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL)
		if err != nil {
			return applied, fmt.Errorf("миграция %d (%s): %w", m.Version, m.Name, err)
		}
		if ok {
			applied++
			log.WithField("name", m.Name).Infof("Миграция %d применена", m.Version)
		}
	}
	return applied, nil
}
