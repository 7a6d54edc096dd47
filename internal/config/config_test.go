package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "PROVIDER_REQUEST_INTERVAL_SECONDS")
	unsetEnvWithCleanup(t, "MONITOR_SLEEP_MIN_SECONDS")
	unsetEnvWithCleanup(t, "MONITOR_SLEEP_MAX_SECONDS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ProviderRequestIntervalSeconds != 60 {
		t.Fatalf("expected default provider interval 60, got %d", cfg.ProviderRequestIntervalSeconds)
	}
	if cfg.MonitorSleepMinSeconds != 60 || cfg.MonitorSleepMaxSeconds != 120 {
		t.Fatalf("expected default monitor sleep bounds 60/120, got %d/%d",
			cfg.MonitorSleepMinSeconds, cfg.MonitorSleepMaxSeconds)
	}
	if cfg.StatementWindowMonths != 1 {
		t.Fatalf("expected default statement window of 1 month, got %d", cfg.StatementWindowMonths)
	}
	if cfg.MonobankAPIBaseURL != "https://api.monobank.ua" {
		t.Fatalf("expected default provider base URL, got %q", cfg.MonobankAPIBaseURL)
	}
}

func TestLoadConfig_CoercesInvalidPacing(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "PROVIDER_REQUEST_INTERVAL_SECONDS", "-5")
	setEnvWithCleanup(t, "STATEMENT_WINDOW_MONTHS", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ProviderRequestIntervalSeconds != 60 {
		t.Fatalf("expected negative interval to coerce to 60, got %d", cfg.ProviderRequestIntervalSeconds)
	}
	if cfg.StatementWindowMonths != 1 {
		t.Fatalf("expected zero window to coerce to 1, got %d", cfg.StatementWindowMonths)
	}
}

func TestLoadConfig_InvertedSleepBoundsUseMinimum(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "MONITOR_SLEEP_MIN_SECONDS", "90")
	setEnvWithCleanup(t, "MONITOR_SLEEP_MAX_SECONDS", "30")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MonitorSleepMaxSeconds != 90 {
		t.Fatalf("expected inverted max to be clamped to min, got %d", cfg.MonitorSleepMaxSeconds)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
		}
	})
}
