package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Log       LogConfig       `yaml:"log"`
	Coins     CoinsConfig     `yaml:"coins"`
	Offers    OffersConfig    `yaml:"offers"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Environment  string        `yaml:"environment"`
	AllowOrigins string        `yaml:"allow_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	BotUsername string `yaml:"bot_username"`
	WebAppURL   string `yaml:"webapp_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// CoinsConfig holds default coin amounts. Values stored in the settings
// table take precedence at runtime.
type CoinsConfig struct {
	ListingFee         int64 `yaml:"listing_fee"`
	DealFee            int64 `yaml:"deal_fee"`
	ReferralBonus      int64 `yaml:"referral_bonus"`
	LoginStreakBonus   int64 `yaml:"login_streak_bonus"`
	LoginStreakDays    int   `yaml:"login_streak_days"`
	MonthlyStreakBonus int64 `yaml:"monthly_streak_bonus"`
	MonthlyStreakDays  int   `yaml:"monthly_streak_days"`
}

type OffersConfig struct {
	// TTL of a pending offer; 0 disables expiry.
	TTL time.Duration `yaml:"ttl"`
	// MaxCounterDepth caps counters per thread; 0 means unlimited.
	MaxCounterDepth int `yaml:"max_counter_depth"`
}

type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Environment:  "development",
			AllowOrigins: "*",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "swap",
			Password:     "swap",
			Name:         "swap",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Coins: CoinsConfig{
			ListingFee:         10,
			DealFee:            0,
			ReferralBonus:      50,
			LoginStreakBonus:   5,
			LoginStreakDays:    7,
			MonthlyStreakBonus: 100,
			MonthlyStreakDays:  30,
		},
		Offers: OffersConfig{
			TTL:             72 * time.Hour,
			MaxCounterDepth: 10,
		},
		Reconcile: ReconcileConfig{
			Interval: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE) and environment variables, in that order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Server.AllowOrigins = getEnv("ALLOW_ORIGINS", cfg.Server.AllowOrigins)
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.BotUsername = getEnv("TELEGRAM_BOT_USERNAME", cfg.Telegram.BotUsername)
	cfg.Telegram.WebAppURL = getEnv("TELEGRAM_WEBAPP_URL", cfg.Telegram.WebAppURL)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = getEnvBool("LOG_PRETTY", cfg.Log.Pretty)

	cfg.Coins.ListingFee = getEnvInt64("LISTING_FEE_COINS", cfg.Coins.ListingFee)
	cfg.Coins.DealFee = getEnvInt64("DEAL_FEE_COINS", cfg.Coins.DealFee)
	cfg.Coins.ReferralBonus = getEnvInt64("REFERRAL_BONUS_COINS", cfg.Coins.ReferralBonus)
	cfg.Coins.LoginStreakBonus = getEnvInt64("LOGIN_STREAK_BONUS_COINS", cfg.Coins.LoginStreakBonus)
	cfg.Coins.LoginStreakDays = getEnvInt("LOGIN_STREAK_DAYS", cfg.Coins.LoginStreakDays)
	cfg.Coins.MonthlyStreakBonus = getEnvInt64("MONTHLY_STREAK_BONUS_COINS", cfg.Coins.MonthlyStreakBonus)
	cfg.Coins.MonthlyStreakDays = getEnvInt("MONTHLY_STREAK_DAYS", cfg.Coins.MonthlyStreakDays)

	cfg.Offers.TTL = getEnvDuration("OFFER_TTL", cfg.Offers.TTL)
	cfg.Offers.MaxCounterDepth = getEnvInt("OFFER_MAX_COUNTER_DEPTH", cfg.Offers.MaxCounterDepth)

	cfg.Reconcile.Interval = getEnvDuration("RECONCILE_INTERVAL", cfg.Reconcile.Interval)
}

func (c *Config) Validate() error {
	if c.Offers.TTL < 0 {
		return fmt.Errorf("offers.ttl must not be negative")
	}
	if c.Offers.MaxCounterDepth < 0 {
		return fmt.Errorf("offers.max_counter_depth must not be negative")
	}
	if c.Coins.ListingFee < 0 || c.Coins.DealFee < 0 || c.Coins.ReferralBonus < 0 ||
		c.Coins.LoginStreakBonus < 0 || c.Coins.MonthlyStreakBonus < 0 {
		return fmt.Errorf("coin amounts must not be negative")
	}
	if c.Coins.LoginStreakDays < 1 || c.Coins.MonthlyStreakDays < 1 {
		return fmt.Errorf("streak lengths must be at least one day")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("reconcile.interval must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
