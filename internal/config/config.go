package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/twinmind/meeting-backend/internal/logger"
	"github.com/twinmind/meeting-backend/internal/utils"
)

// Config holds server-level settings. Values come from an optional YAML file
// (CONFIG_FILE) with environment variables taking precedence, so deployments
// can ship a file and still override per-instance.
type Config struct {
	Port             string   `yaml:"port"`
	LogMode          string   `yaml:"log_mode"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port:    "8080",
		LogMode: "development",
		CORSAllowOrigins: []string{
			"http://localhost:3000",
		},
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.CORSAllowOrigins = cfg.CORSAllowOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, p)
			}
		}
	}
	return cfg, nil
}
