// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Политики поведения при недоступном оценщике automod.
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"drum"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"drum"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9102"`

	// --- Economy ---
	// Суммы задаются строками и парсятся в decimal: float здесь недопустим.
	EconomyStartingBalanceRaw string          `envconfig:"ECONOMY_STARTING_BALANCE" default:"5.00"`
	MinChamberBalanceRaw      string          `envconfig:"MIN_CHAMBER_BALANCE" default:"10.00"`
	EconomyStartingBalance    decimal.Decimal `ignored:"true"`
	MinChamberBalance         decimal.Decimal `ignored:"true"`

	// --- Links ---
	// 0: проверка дубликатов ссылок выключена
	AllowedDuplicateLinkHours int  `envconfig:"ALLOWED_DUPLICATE_LINK_HOURS" default:"0"`
	LinkRequired              bool `envconfig:"LINK_REQUIRED" default:"false"`

	// --- Ranking / listing ---
	RankingDecaySeconds float64       `envconfig:"RANKING_DECAY_SECONDS" default:"45000"`
	ItemsPerPage        int           `envconfig:"ITEMS_PER_PAGE" default:"20"`
	ListingCacheSize    int           `envconfig:"LISTING_CACHE_SIZE" default:"512"`
	ListingCacheTTL     time.Duration `envconfig:"LISTING_CACHE_TTL" default:"30s"`

	// --- Automod ---
	AutomodDefaultThreshold float64            `envconfig:"AUTOMOD_DEFAULT_THRESHOLD" default:"0.5"`
	AutomodThresholds       map[string]float64 `envconfig:"AUTOMOD_THRESHOLDS"`
	AutomodEvaluatorTimeout time.Duration      `envconfig:"AUTOMOD_EVALUATOR_TIMEOUT" default:"2s"`
	AutomodFailPolicy       string             `envconfig:"AUTOMOD_FAIL_POLICY" default:"open"`
	AutomodWordListPath     string             `envconfig:"AUTOMOD_WORDLIST_PATH"`
	AutomodRemoteURL        string             `envconfig:"AUTOMOD_REMOTE_URL"`
	AutomodRemoteRPS        float64            `envconfig:"AUTOMOD_REMOTE_RPS" default:"20"`

	// --- Moderation notifier (Telegram) ---
	// Без токена уведомления только пишутся в лог
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ModChatID        int64  `envconfig:"MOD_CHAT_ID"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Jobs ---
	JobsWarmListingsSpec string `envconfig:"JOBS_WARM_LISTINGS_SPEC" default:"*/5 * * * *"`
	JobsReloadWordsSpec  string `envconfig:"JOBS_RELOAD_WORDS_SPEC" default:"0 * * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.AllowedDuplicateLinkHours < 0 {
		return fmt.Errorf("ALLOWED_DUPLICATE_LINK_HOURS должен быть >= 0")
	}
	if c.RankingDecaySeconds <= 0 {
		return fmt.Errorf("RANKING_DECAY_SECONDS должен быть > 0")
	}
	if c.ItemsPerPage <= 0 {
		return fmt.Errorf("ITEMS_PER_PAGE должен быть > 0")
	}
	if c.AutomodDefaultThreshold < 0 || c.AutomodDefaultThreshold > 1 {
		return fmt.Errorf("AUTOMOD_DEFAULT_THRESHOLD должен быть в [0,1]")
	}
	for id, t := range c.AutomodThresholds {
		if t < 0 || t > 1 {
			return fmt.Errorf("AUTOMOD_THRESHOLDS[%s] должен быть в [0,1]", id)
		}
	}
	if c.AutomodEvaluatorTimeout <= 0 {
		return fmt.Errorf("AUTOMOD_EVALUATOR_TIMEOUT должен быть > 0")
	}
	if c.AutomodFailPolicy != FailOpen && c.AutomodFailPolicy != FailClosed {
		return fmt.Errorf("AUTOMOD_FAIL_POLICY: ожидается %q или %q, получено %q", FailOpen, FailClosed, c.AutomodFailPolicy)
	}
	if c.TelegramBotToken != "" && c.ModChatID == 0 {
		return fmt.Errorf("MOD_CHAT_ID обязателен, если задан TELEGRAM_BOT_TOKEN")
	}
	if c.EconomyStartingBalance.IsNegative() || c.MinChamberBalance.IsNegative() {
		return fmt.Errorf("суммы экономики не могут быть отрицательными")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	var err error
	if cfg.EconomyStartingBalance, err = parseMoney(cfg.EconomyStartingBalanceRaw); err != nil {
		return nil, fmt.Errorf("ECONOMY_STARTING_BALANCE parse: %w", err)
	}
	if cfg.MinChamberBalance, err = parseMoney(cfg.MinChamberBalanceRaw); err != nil {
		return nil, fmt.Errorf("MIN_CHAMBER_BALANCE parse: %w", err)
	}
	cfg.AutomodFailPolicy = strings.ToLower(strings.TrimSpace(cfg.AutomodFailPolicy))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseMoney парсит денежную сумму с точностью до двух знаков.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", s, err)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("amount %q: больше двух знаков после точки", s)
	}
	return d.Round(2), nil
}
