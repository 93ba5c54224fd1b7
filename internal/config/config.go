package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSerialBaud is the Meshtastic serial link rate.
const DefaultSerialBaud = 115200

const (
	defaultSnapshotSecs     = 60
	defaultReconnectInitial = 5
	defaultReconnectMax     = 60
	defaultCloseTimeout     = 5
)

// Config holds everything the daemon reads from the environment.
type Config struct {
	// Target selects the radio: serial path, host[:port], BLE address,
	// or empty for auto-discovery.
	Target string

	ChannelIndex int
	ChannelName  string

	Debug        bool
	EnergySaving bool

	// InstanceURL is the dashboard base URL; empty disables all POSTs.
	InstanceURL string
	APIToken    string

	SnapshotInterval time.Duration
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	CloseTimeout     time.Duration
}

func Default() Config {
	return Config{
		SnapshotInterval: defaultSnapshotSecs * time.Second,
		ReconnectInitial: defaultReconnectInitial * time.Second,
		ReconnectMax:     defaultReconnectMax * time.Second,
		CloseTimeout:     defaultCloseTimeout * time.Second,
	}
}

// FromEnv builds the runtime configuration from the process environment,
// falling back to defaults for anything unset or unparsable.
func FromEnv() Config {
	cfg := Default()

	cfg.Target = firstEnv("CONNECTION", "MESH_SERIAL")
	cfg.ChannelIndex = envInt("CHANNEL_INDEX", cfg.ChannelIndex)
	cfg.ChannelName = strings.TrimSpace(os.Getenv("CHANNEL"))
	cfg.Debug = envFlag("DEBUG")
	cfg.EnergySaving = envFlag("ENERGY_SAVING")
	cfg.InstanceURL = strings.TrimRight(strings.TrimSpace(os.Getenv("POTATOMESH_INSTANCE")), "/")
	cfg.APIToken = strings.TrimSpace(os.Getenv("API_TOKEN"))
	cfg.SnapshotInterval = envSeconds("MESH_SNAPSHOT_SECS", cfg.SnapshotInterval)
	cfg.ReconnectInitial = envSeconds("MESH_RECONNECT_INITIAL", cfg.ReconnectInitial)
	cfg.ReconnectMax = envSeconds("MESH_RECONNECT_MAX", cfg.ReconnectMax)
	cfg.CloseTimeout = envSecondsAllowZero("MESH_CLOSE_TIMEOUT", cfg.CloseTimeout)

	return cfg
}

func (c *Config) Validate() error {
	if c.ChannelIndex < 0 {
		return fmt.Errorf("channel index %d is negative", c.ChannelIndex)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval %v must be positive", c.SnapshotInterval)
	}
	if c.ReconnectInitial <= 0 {
		return fmt.Errorf("reconnect initial delay %v must be positive", c.ReconnectInitial)
	}
	if c.ReconnectMax < c.ReconnectInitial {
		return fmt.Errorf("reconnect max delay %v below initial delay %v", c.ReconnectMax, c.ReconnectInitial)
	}

	return nil
}

// PostsEnabled reports whether outbound API POSTs are configured.
func (c *Config) PostsEnabled() bool {
	return c.InstanceURL != ""
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}

	return ""
}

func envFlag(key string) bool {
	return strings.TrimSpace(os.Getenv(key)) == "1"
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	secs := envInt(key, 0)
	if secs <= 0 {
		return fallback
	}

	return time.Duration(secs) * time.Second
}

func envSecondsAllowZero(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return fallback
	}

	return time.Duration(secs) * time.Second
}
