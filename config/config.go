package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Market    MarketConfig
	Scheduler SchedulerConfig
	Queue     QueueConfig
	Telegram  TelegramConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port        string   `env:"HTTP_PORT" envDefault:"5250"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres"
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	Path   string `env:"DB_PATH" envDefault:"database/propintel.db"`
	DSN    string `env:"DB_DSN"`
}

// MarketConfig holds the comparator constants.
type MarketConfig struct {
	// Floor assumed to carry the peer-average price per square meter
	AverageFloor float64 `env:"MARKET_AVERAGE_FLOOR" envDefault:"10"`
	// Price adjustment per floor away from AverageFloor
	FloorStep float64 `env:"MARKET_FLOOR_STEP" envDefault:"0.005"`
}

type SchedulerConfig struct {
	Enabled      bool          `env:"INTELLIGENCE_SCHEDULER_ENABLED" envDefault:"true"`
	Interval     time.Duration `env:"INTELLIGENCE_INTERVAL" envDefault:"6h"`
	RunOnStartup bool          `env:"INTELLIGENCE_RUN_ON_STARTUP" envDefault:"false"`
}

type QueueConfig struct {
	// Maximum number of pending refresh batches
	BufferSize int `env:"REFRESH_QUEUE_SIZE" envDefault:"100"`

	// Maximum number of retries for a failed property refresh
	MaxRetries int `env:"REFRESH_MAX_RETRIES" envDefault:"2"`

	// Delay between retries
	RetryDelay time.Duration `env:"REFRESH_RETRY_DELAY" envDefault:"5s"`
}

type TelegramConfig struct {
	Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
	APIURL   string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig reads an optional .env file and then parses the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("INTELLIGENCE_INTERVAL must be positive")
	}
	if c.Queue.BufferSize <= 0 {
		return errors.New("REFRESH_QUEUE_SIZE must be positive")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when Telegram is enabled")
	}
	return nil
}
