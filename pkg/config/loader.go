package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given yaml file (or the default search
// paths when path is empty), layered over Default() and environment
// variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	v.SetEnvPrefix("SOLATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without the SOLATLAS_ prefix for container deploys
	v.BindEnv("http.port", "HTTP_PORT", "SOLATLAS_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "SOLATLAS_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "SOLATLAS_REDIS_URL")
	v.BindEnv("queue.url", "QUEUE_URL", "SOLATLAS_QUEUE_URL")
	v.BindEnv("sqlite.path", "SQLITE_PATH", "SOLATLAS_SQLITE_PATH")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file found: defaults plus env vars apply.
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}
