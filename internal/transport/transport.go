package transport

import "context"

// Transport moves framed Meshtastic payloads over one physical link.
// Implementations support one reader and one writer goroutine at a time.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, payload []byte) error
}

// StatusTargetResolver is implemented by transports that can name their
// concrete endpoint (device path, host:port, BLE address) for logging.
type StatusTargetResolver interface {
	StatusTarget() string
}
