/**
 * @description
 * This package handles configuration management for the reconciliation
 * service. It uses Viper to read configuration from environment variables
 * (with an optional .env file), providing defaults for everything except the
 * external service URLs.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix  string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	PaycheckEventExchange string `mapstructure:"PAYCHECK_EVENT_EXCHANGE"`
	MonobankAPIBaseURL    string `mapstructure:"MONOBANK_API_BASE_URL"`
	InternalJWTSecret     string `mapstructure:"INTERNAL_JWT_SECRET"`

	// Provider pacing and polling cadence.
	ProviderRequestIntervalSeconds int `mapstructure:"PROVIDER_REQUEST_INTERVAL_SECONDS"`
	StatementWindowMonths          int `mapstructure:"STATEMENT_WINDOW_MONTHS"`
	MonitorSleepMinSeconds         int `mapstructure:"MONITOR_SLEEP_MIN_SECONDS"`
	MonitorSleepMaxSeconds         int `mapstructure:"MONITOR_SLEEP_MAX_SECONDS"`

	// Cron schedules for the secondary jobs.
	BackfillSchedule    string `mapstructure:"BACKFILL_SCHEDULE"`
	DueReminderSchedule string `mapstructure:"DUE_REMINDER_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PAYCHECK_EVENT_EXCHANGE", "vilnyypay.paychecks")
	viper.SetDefault("MONOBANK_API_BASE_URL", "https://api.monobank.ua")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "vilnyypay:rate_limit")
	viper.SetDefault("PROVIDER_REQUEST_INTERVAL_SECONDS", 60)
	viper.SetDefault("STATEMENT_WINDOW_MONTHS", 1)
	viper.SetDefault("MONITOR_SLEEP_MIN_SECONDS", 60)
	viper.SetDefault("MONITOR_SLEEP_MAX_SECONDS", 120)
	viper.SetDefault("BACKFILL_SCHEDULE", "0 4 * * 0")   // At 04:00 on Sunday.
	viper.SetDefault("DUE_REMINDER_SCHEDULE", "0 9 * * *") // At 09:00 every day.

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYCHECK_EVENT_EXCHANGE")
	_ = viper.BindEnv("MONOBANK_API_BASE_URL")
	_ = viper.BindEnv("INTERNAL_JWT_SECRET")
	_ = viper.BindEnv("PROVIDER_REQUEST_INTERVAL_SECONDS")
	_ = viper.BindEnv("STATEMENT_WINDOW_MONTHS")
	_ = viper.BindEnv("MONITOR_SLEEP_MIN_SECONDS")
	_ = viper.BindEnv("MONITOR_SLEEP_MAX_SECONDS")
	_ = viper.BindEnv("BACKFILL_SCHEDULE")
	_ = viper.BindEnv("DUE_REMINDER_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.InternalJWTSecret = strings.TrimSpace(config.InternalJWTSecret)

	// Pacing values below the provider's contract would trip its rate limit;
	// coerce anything nonsensical back to the defaults.
	if config.ProviderRequestIntervalSeconds <= 0 {
		config.ProviderRequestIntervalSeconds = 60
	}
	if config.StatementWindowMonths <= 0 {
		config.StatementWindowMonths = 1
	}
	if config.MonitorSleepMinSeconds <= 0 {
		config.MonitorSleepMinSeconds = 60
	}
	if config.MonitorSleepMaxSeconds < config.MonitorSleepMinSeconds {
		slog.Warn("monitor sleep bounds inverted; using minimum for both",
			"min", config.MonitorSleepMinSeconds, "max", config.MonitorSleepMaxSeconds)
		config.MonitorSleepMaxSeconds = config.MonitorSleepMinSeconds
	}

	return
}
