package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
)

// BoardConfig holds the settings of the board CLI.
type BoardConfig struct {
	APIURL        string
	APITimeout    time.Duration
	SweepInterval time.Duration
	Logger        LoggerConfig
}

// LoadBoard reads the board settings from the environment (optionally .env).
func LoadBoard() (*BoardConfig, error) {
	_ = godotenv.Load(".env")

	cfg := &BoardConfig{
		APIURL:        getString("TASKBOARD_API_URL", "http://localhost:8000/api"),
		APITimeout:    getDuration("API_TIMEOUT", 10*time.Second),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: TASKBOARD_API_URL %q is not an absolute URL", cfg.APIURL)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("config: SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	return cfg, nil
}
