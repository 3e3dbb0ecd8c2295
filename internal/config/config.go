package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	DBPath          string        `envconfig:"DB_PATH" default:"./data/yonote.db"`
	YonoteAPIBase   string        `envconfig:"YONOTE_API_BASE" default:"https://app.yonote.ru/api"`
	YonoteAppBase   string        `envconfig:"YONOTE_APP_BASE" default:"https://app.yonote.ru"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"1m"`
	EventsPageLimit int           `envconfig:"EVENTS_PAGE_LIMIT" default:"20"`
	APITimeout      time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"` // healthz
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
