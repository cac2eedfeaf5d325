// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	BotUsername      string `envconfig:"BOT_USERNAME" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	// Канал, куда бот отправляет заявки на выдачу звёзд и выводы
	ReviewChatID int64 `envconfig:"REVIEW_CHAT_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"stars_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Shop ---
	// Цена одной звезды в рублях (строкой, парсится в decimal)
	ShopStarPrice    string `envconfig:"SHOP_STAR_PRICE" default:"1.70"`
	ShopMinStars     int64  `envconfig:"SHOP_MIN_STARS" default:"50"`
	ShopMaxStars     int64  `envconfig:"SHOP_MAX_STARS" default:"100000"`
	PaymentDetails   string `envconfig:"PAYMENT_DETAILS" default:""`

	// --- Exchange / Withdraw ---
	// У каждого направления обмена свой курс и своя комиссия.
	// Комиссия вывода отдельная и с обменом не смешивается.
	RealToVirtualRate       float64 `envconfig:"REAL_TO_VIRTUAL_RATE" default:"1.0"`
	ExchangeCommission      float64 `envconfig:"EXCHANGE_COMMISSION" default:"0.0"`
	VirtualToRealRate       float64 `envconfig:"VIRTUAL_TO_REAL_RATE" default:"1.0"`
	VirtualToRealCommission float64 `envconfig:"VIRTUAL_TO_REAL_COMMISSION" default:"0.1"`
	WithdrawMinAmount       int64   `envconfig:"WITHDRAW_MIN_AMOUNT" default:"100"`
	WithdrawCommission      float64 `envconfig:"WITHDRAW_COMMISSION" default:"0.05"`

	// --- Games ---
	GamesMinBet       int64   `envconfig:"GAMES_MIN_BET" default:"10"`
	GamesMaxBet       int64   `envconfig:"GAMES_MAX_BET" default:"10000"`
	MinesWinReward    int64   `envconfig:"MINES_WIN_REWARD" default:"50"`
	MinesLosePenalty  int64   `envconfig:"MINES_LOSE_PENALTY" default:"30"`
	JackpotMultiplier float64 `envconfig:"JACKPOT_MULTIPLIER" default:"10.0"`

	// --- Actions (антиспам) ---
	ActionDedupTTL  time.Duration `envconfig:"ACTION_DEDUP_TTL" default:"30s"`
	ActionCooldown  time.Duration `envconfig:"ACTION_COOLDOWN" default:"2s"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureGamesEnabled    bool `envconfig:"FEATURE_GAMES_ENABLED" default:"true"`
	FeatureExchangeEnabled bool `envconfig:"FEATURE_EXCHANGE_ENABLED" default:"true"`
	FeatureTicketsEnabled  bool `envconfig:"FEATURE_TICKETS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.ReviewChatID == 0 {
		return fmt.Errorf("REVIEW_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.ShopMinStars <= 0 || c.ShopMaxStars < c.ShopMinStars {
		return fmt.Errorf("некорректные SHOP_MIN_STARS/SHOP_MAX_STARS")
	}
	if c.GamesMinBet <= 0 || c.GamesMaxBet < c.GamesMinBet {
		return fmt.Errorf("некорректные GAMES_MIN_BET/GAMES_MAX_BET")
	}
	if c.WithdrawCommission < 0 || c.WithdrawCommission >= 1 {
		return fmt.Errorf("WITHDRAW_COMMISSION должна быть в [0, 1)")
	}
	if c.ExchangeCommission < 0 || c.ExchangeCommission >= 1 {
		return fmt.Errorf("EXCHANGE_COMMISSION должна быть в [0, 1)")
	}
	if c.VirtualToRealCommission < 0 || c.VirtualToRealCommission >= 1 {
		return fmt.Errorf("VIRTUAL_TO_REAL_COMMISSION должна быть в [0, 1)")
	}
	if c.RealToVirtualRate <= 0 || c.VirtualToRealRate <= 0 {
		return fmt.Errorf("курсы обмена должны быть > 0")
	}
	if c.MinesWinReward <= 0 || c.MinesLosePenalty <= 0 {
		return fmt.Errorf("некорректные MINES_WIN_REWARD/MINES_LOSE_PENALTY")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
