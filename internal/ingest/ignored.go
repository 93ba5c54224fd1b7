package ingest

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// IgnoredLog captures dropped packets as line-delimited JSON when debug
// mode is on. Outside debug mode every method is a no-op.
type IgnoredLog struct {
	logger *slog.Logger
	path   string

	mu sync.Mutex
	f  *os.File
}

// NewIgnoredLog builds a disabled log. Use Enable to start capturing.
func NewIgnoredLog(logger *slog.Logger, path string) *IgnoredLog {
	return &IgnoredLog{logger: logger, path: path}
}

// Enable opens the append-only capture file.
func (l *IgnoredLog) Enable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f != nil {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	l.f = f

	return nil
}

// Record appends one {timestamp, reason, packet} line.
func (l *IgnoredLog) Record(reason string, packet map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return
	}

	line, err := json.Marshal(map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"reason":    reason,
		"packet":    packet,
	})
	if err != nil {
		l.logger.Debug("encode ignored packet", "error", err)

		return
	}
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		l.logger.Debug("write ignored packet", "error", err)
	}
}

func (l *IgnoredLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil

	return err
}
