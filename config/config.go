package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"bank/internal/core"
	"bank/internal/http"
	"bank/internal/sqlite"
)

type Config struct {
	LogLevel int `envconfig:"LOG_LEVEL" default:"-4"`
	Database sqlite.Config
	HTTP     http.Config
	Interest core.InterestConfig
}

func Load() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}

	return config, nil
}
