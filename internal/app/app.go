// Package app инициализирует все компоненты приложения.
// app.go: точка сборки: создаёт БД-пул, репозитории, сервисы, реестр
// автомодерации и контроллер допуска публикаций.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/config"
	"serotonyl.ru/drum/internal/db/postgres"
	"serotonyl.ru/drum/internal/features/admission"
	"serotonyl.ru/drum/internal/features/automod"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/economy"
	"serotonyl.ru/drum/internal/features/karma"
	"serotonyl.ru/drum/internal/features/links"
	"serotonyl.ru/drum/internal/features/listing"
	"serotonyl.ru/drum/internal/features/profiles"
	"serotonyl.ru/drum/internal/features/votes"
	"serotonyl.ru/drum/internal/jobs"
	"serotonyl.ru/drum/internal/middleware"
	"serotonyl.ru/drum/internal/notify"
)

// Параметры встроенных оценщиков.
const (
	capsMinLetters     = 12
	linksMaxLinks      = 5
	keywordSet         = "spam"
	keywordSaturation  = 3
	migrationsDeadline = 30 * time.Second
)

// App содержит все компоненты приложения.
type App struct {
	DB        *pgxpool.Pool
	Profiles  *profiles.Service
	Chambers  *chambers.Service
	Links     *links.Service
	Economy   *economy.Service
	Karma     *karma.Repository
	Votes     *votes.Service
	Listing   *listing.Service
	Registry  *automod.Registry
	Admission *admission.Controller
	Limiter   *middleware.RateLimiter
	Scheduler *jobs.Scheduler
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	mctx, cancel := context.WithTimeout(ctx, migrationsDeadline)
	defer cancel()
	if _, err := postgres.Migrate(mctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Репозитории ===
	profileRepo := profiles.NewRepository(pool)
	chamberRepo := chambers.NewRepository(pool)
	linkRepo := links.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	karmaRepo := karma.NewRepository(pool)
	voteRepo := votes.NewRepository(pool)
	listingRepo := listing.NewRepository(pool)

	// === 3. Автомодерация ===
	registry, words, err := newRegistry(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	engine := automod.NewEngine(registry, cfg.AutomodEvaluatorTimeout, cfg.AutomodFailPolicy == config.FailClosed)

	// === 4. Сервисы ===
	profileService := profiles.NewService(profileRepo, cfg.EconomyStartingBalance)
	chamberService := chambers.NewService(chamberRepo, registry)
	linkService := links.NewService(linkRepo, time.Duration(cfg.AllowedDuplicateLinkHours)*time.Hour)
	economyService := economy.NewService(economyRepo)
	ledger := karma.NewLedger(karmaRepo, linkRepo)
	voteService := votes.NewService(voteRepo, ledger)
	listingService := listing.NewService(listingRepo, cfg.ItemsPerPage, cfg.RankingDecaySeconds,
		cfg.ListingCacheSize, cfg.ListingCacheTTL)

	// === 5. Допуск публикаций ===
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	notifier, err := newNotifier(cfg)
	if err != nil {
		limiter.Close()
		pool.Close()
		return nil, err
	}
	controller := admission.NewController(admission.Deps{
		Profiles:  profileService,
		Chambers:  chamberService,
		Content:   linkService,
		Moderator: engine,
		Balances:  economy.NewLedger(cfg.MinChamberBalance),
		Limiter:   limiter,
		Notifier:  notifier,
	}, cfg.LinkRequired)

	// === 6. Планировщик задач ===
	var wordList jobs.WordList
	if words != nil {
		wordList = words
	}
	scheduler := jobs.NewScheduler(listingService, wordList, cfg.AutomodWordListPath, jobs.Specs{
		WarmListings: cfg.JobsWarmListingsSpec,
		ReloadWords:  cfg.JobsReloadWordsSpec,
	})

	log.WithFields(log.Fields{
		"evaluators":  registry.IDs(),
		"fail_policy": cfg.AutomodFailPolicy,
	}).Info("Приложение собрано")

	return &App{
		DB:        pool,
		Profiles:  profileService,
		Chambers:  chamberService,
		Links:     linkService,
		Economy:   economyService,
		Karma:     karmaRepo,
		Votes:     voteService,
		Listing:   listingService,
		Registry:  registry,
		Admission: controller,
		Limiter:   limiter,
		Scheduler: scheduler,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Limiter.Close()
	a.DB.Close()
}

// newRegistry регистрирует встроенные оценщики и пороги из конфигурации.
// Возвращает оценщик по списку слов, если он настроен.
func newRegistry(cfg *config.Config) (*automod.Registry, *automod.KeywordEvaluator, error) {
	registry := automod.NewRegistry(cfg.AutomodDefaultThreshold)
	builtin := map[string]automod.Evaluator{
		automod.EvaluatorGTUBE: automod.GTUBEEvaluator,
		automod.EvaluatorCaps:  automod.CapsEvaluator{MinLetters: capsMinLetters},
		automod.EvaluatorLinks: automod.LinksEvaluator{MaxLinks: linksMaxLinks},
	}

	var words *automod.KeywordEvaluator
	if cfg.AutomodWordListPath != "" {
		words = automod.NewKeywordEvaluator(keywordSet, keywordSaturation)
		if err := words.LoadFromFileJSON(cfg.AutomodWordListPath); err != nil {
			return nil, nil, fmt.Errorf("ошибка загрузки списка слов: %w", err)
		}
		builtin[automod.EvaluatorKeywords] = words
	}
	if cfg.AutomodRemoteURL != "" {
		builtin[automod.EvaluatorRemote] = automod.NewRemoteEvaluator(cfg.AutomodRemoteURL, cfg.AutomodRemoteRPS)
	}

	for id, ev := range builtin {
		if err := registry.Register(id, ev); err != nil {
			return nil, nil, fmt.Errorf("ошибка регистрации оценщика %s: %w", id, err)
		}
	}
	for id, t := range cfg.AutomodThresholds {
		if err := registry.SetThreshold(id, t); err != nil {
			return nil, nil, fmt.Errorf("порог оценщика %s: %w", id, err)
		}
	}
	return registry, words, nil
}

// newNotifier: без токена отказы автомодерации только пишутся в лог.
func newNotifier(cfg *config.Config) (admission.Notifier, error) {
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN не задан, уведомления модераторам только в лог")
		return notify.Log{}, nil
	}
	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.ModChatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram-уведомителя: %w", err)
	}
	return tg, nil
}
