package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL"`

	OpenAI   OpenAIConfig
	Router   RouterConfig
	Telegram TelegramConfig
	Midtrans MidtransConfig
	Sheets   SheetsConfig

	DocsDir       string        `env:"DOCS_DIR" envDefault:"docs"`
	FanoutTimeout time.Duration `env:"FANOUT_TIMEOUT" envDefault:"10s"`
}

type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
}

type RouterConfig struct {
	TurnTimeout      time.Duration `env:"TURN_TIMEOUT" envDefault:"60s"`
	LockWait         time.Duration `env:"LOCK_WAIT" envDefault:"10s"`
	HistoryLimit     int           `env:"HISTORY_LIMIT" envDefault:"5"`
	InvocationBudget int           `env:"INVOCATION_BUDGET" envDefault:"3"`
}

type TelegramConfig struct {
	BotToken           string `env:"TELEGRAM_BOT_TOKEN"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
}

type MidtransConfig struct {
	ServerKey  string `env:"MIDTRANS_SERVER_KEY"`
	Production bool   `env:"MIDTRANS_PRODUCTION" envDefault:"false"`
}

type SheetsConfig struct {
	CredentialsFile string            `env:"SHEETS_CREDENTIALS_FILE"`
	SpreadsheetID   string            `env:"SHEETS_SPREADSHEET_ID"`
	SheetName       string            `env:"SHEETS_SHEET_NAME" envDefault:"Sheet1"`
	RoomCells       map[string]string `env:"SHEETS_ROOM_CELLS" envDefault:"1:B6,2:C6,3:E5,4:H4" envSeparator:"," envKeyValSeparator:":"`
}

// Load reads an optional .env file and parses the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Router.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.Router.HistoryLimit)
	}
	if c.Router.InvocationBudget <= 0 {
		return fmt.Errorf("INVOCATION_BUDGET must be positive, got %d", c.Router.InvocationBudget)
	}
	if c.Router.TurnTimeout <= 0 {
		return fmt.Errorf("TURN_TIMEOUT must be positive")
	}
	if c.Router.LockWait <= 0 {
		return fmt.Errorf("LOCK_WAIT must be positive")
	}
	if c.Telegram.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// SheetsEnabled reports whether the spreadsheet mirror has enough settings to run.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsFile != "" && c.Sheets.SpreadsheetID != ""
}
