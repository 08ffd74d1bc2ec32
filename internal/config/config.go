package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds service settings, loaded from MAILOTP_* environment
// variables with sensible defaults.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// NATSURL enables lifecycle events when non-empty.
	NATSURL string `mapstructure:"nats_url"`

	// MonitorMaxAttempts bounds the polling loop.
	MonitorMaxAttempts int `mapstructure:"monitor_max_attempts"`

	// MonitorBaseDelayMs is the wait after the first empty attempt.
	MonitorBaseDelayMs int `mapstructure:"monitor_base_delay_ms"`

	// ScanFolderLimit is how many messages each folder contributes
	// to one scan pass.
	ScanFolderLimit int `mapstructure:"scan_folder_limit"`

	// ListLimit caps the combined mailbox listing.
	ListLimit int `mapstructure:"list_limit"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAILOTP")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("nats_url", "")
	v.SetDefault("monitor_max_attempts", 60)
	v.SetDefault("monitor_base_delay_ms", 2000)
	v.SetDefault("scan_folder_limit", 30)
	v.SetDefault("list_limit", 15)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// MonitorBaseDelay returns the configured base delay as a duration.
func (c *Config) MonitorBaseDelay() time.Duration {
	return time.Duration(c.MonitorBaseDelayMs) * time.Millisecond
}
