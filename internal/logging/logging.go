package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Manager owns the daemon logger configuration.
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewManager() *Manager {
	m := &Manager{}
	m.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	return m
}

// Configure switches the process-wide log level. Debug mode lowers the
// threshold so per-packet traces become visible.
func (m *Manager) Configure(level string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parsed})
	m.logger = slog.New(h)
	slog.SetDefault(m.logger)

	return nil
}

func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

func parseLevel(raw string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unsupported log level: %q", raw)
	}
}

// LevelFor maps the DEBUG flag onto a log level name.
func LevelFor(debug bool) string {
	if debug {
		return "debug"
	}

	return "info"
}
