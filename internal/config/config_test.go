package config

import (
	"testing"
	"time"
)

func clearMeshEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONNECTION", "MESH_SERIAL", "CHANNEL_INDEX", "CHANNEL", "DEBUG",
		"ENERGY_SAVING", "POTATOMESH_INSTANCE", "API_TOKEN",
		"MESH_SNAPSHOT_SECS", "MESH_RECONNECT_INITIAL", "MESH_RECONNECT_MAX",
		"MESH_CLOSE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearMeshEnv(t)

	cfg := FromEnv()

	if cfg.Target != "" {
		t.Fatalf("expected empty target, got %q", cfg.Target)
	}
	if cfg.ChannelIndex != 0 {
		t.Fatalf("expected channel index 0, got %d", cfg.ChannelIndex)
	}
	if cfg.SnapshotInterval != 60*time.Second {
		t.Fatalf("expected 60s snapshot interval, got %v", cfg.SnapshotInterval)
	}
	if cfg.ReconnectInitial != 5*time.Second || cfg.ReconnectMax != 60*time.Second {
		t.Fatalf("expected 5s/60s reconnect bounds, got %v/%v", cfg.ReconnectInitial, cfg.ReconnectMax)
	}
	if cfg.CloseTimeout != 5*time.Second {
		t.Fatalf("expected 5s close timeout, got %v", cfg.CloseTimeout)
	}
	if cfg.Debug || cfg.EnergySaving {
		t.Fatalf("expected debug and energy saving off by default")
	}
	if cfg.PostsEnabled() {
		t.Fatalf("expected posts disabled without instance URL")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestFromEnvReadsValues(t *testing.T) {
	clearMeshEnv(t)
	t.Setenv("CONNECTION", "/dev/ttyUSB7")
	t.Setenv("CHANNEL_INDEX", "2")
	t.Setenv("CHANNEL", "LongFast")
	t.Setenv("DEBUG", "1")
	t.Setenv("ENERGY_SAVING", "1")
	t.Setenv("POTATOMESH_INSTANCE", "https://potatomesh.example/")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("MESH_SNAPSHOT_SECS", "15")
	t.Setenv("MESH_RECONNECT_INITIAL", "2")
	t.Setenv("MESH_RECONNECT_MAX", "30")
	t.Setenv("MESH_CLOSE_TIMEOUT", "0")

	cfg := FromEnv()

	if cfg.Target != "/dev/ttyUSB7" {
		t.Fatalf("target = %q, want /dev/ttyUSB7", cfg.Target)
	}
	if cfg.ChannelIndex != 2 {
		t.Fatalf("channel index = %d, want 2", cfg.ChannelIndex)
	}
	if cfg.ChannelName != "LongFast" {
		t.Fatalf("channel name = %q, want LongFast", cfg.ChannelName)
	}
	if !cfg.Debug || !cfg.EnergySaving {
		t.Fatalf("expected debug and energy saving enabled")
	}
	if cfg.InstanceURL != "https://potatomesh.example" {
		t.Fatalf("instance URL = %q, want trailing slash stripped", cfg.InstanceURL)
	}
	if cfg.APIToken != "secret" {
		t.Fatalf("api token = %q, want secret", cfg.APIToken)
	}
	if cfg.SnapshotInterval != 15*time.Second {
		t.Fatalf("snapshot interval = %v, want 15s", cfg.SnapshotInterval)
	}
	if cfg.ReconnectInitial != 2*time.Second || cfg.ReconnectMax != 30*time.Second {
		t.Fatalf("reconnect bounds = %v/%v, want 2s/30s", cfg.ReconnectInitial, cfg.ReconnectMax)
	}
	if cfg.CloseTimeout != 0 {
		t.Fatalf("close timeout = %v, want 0 (disabled)", cfg.CloseTimeout)
	}
}

func TestFromEnvMeshSerialFallback(t *testing.T) {
	clearMeshEnv(t)
	t.Setenv("MESH_SERIAL", "/dev/ttyACM3")

	if cfg := FromEnv(); cfg.Target != "/dev/ttyACM3" {
		t.Fatalf("target = %q, want MESH_SERIAL fallback", cfg.Target)
	}
}

func TestFromEnvConnectionWinsOverMeshSerial(t *testing.T) {
	clearMeshEnv(t)
	t.Setenv("CONNECTION", "192.168.1.20:4403")
	t.Setenv("MESH_SERIAL", "/dev/ttyACM3")

	if cfg := FromEnv(); cfg.Target != "192.168.1.20:4403" {
		t.Fatalf("target = %q, want CONNECTION to win", cfg.Target)
	}
}

func TestFromEnvIgnoresGarbageNumbers(t *testing.T) {
	clearMeshEnv(t)
	t.Setenv("MESH_SNAPSHOT_SECS", "soon")
	t.Setenv("MESH_RECONNECT_INITIAL", "-4")

	cfg := FromEnv()
	if cfg.SnapshotInterval != 60*time.Second {
		t.Fatalf("snapshot interval = %v, want default for garbage input", cfg.SnapshotInterval)
	}
	if cfg.ReconnectInitial != 5*time.Second {
		t.Fatalf("reconnect initial = %v, want default for negative input", cfg.ReconnectInitial)
	}
}

func TestValidateRejectsInvertedBackoffBounds(t *testing.T) {
	cfg := Default()
	cfg.ReconnectInitial = 90 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for max < initial")
	}
}
