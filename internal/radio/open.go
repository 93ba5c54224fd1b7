package radio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/config"
	"github.com/potatomesh/meshingest/internal/transport"
)

// ErrNoInterface means every discovery candidate failed. The operator has
// to supply a target; the supervisor treats this as fatal.
var ErrNoInterface = errors.New("no mesh interface available")

// discoveryTCPFallback is tried after all serial candidates, for setups
// running meshtasticd on the same host.
const discoveryTCPFallback = "127.0.0.1"

// OpenOptions carries the dependencies a radio connection needs.
type OpenOptions struct {
	Logger *slog.Logger
	Bus    bus.MessageBus
	Sink   SessionSink

	// Target is the raw connection string; empty triggers serial
	// auto-discovery.
	Target string
}

// Open resolves the target string and opens the radio. With an empty
// target it walks the serial candidates and falls back to local TCP.
func Open(ctx context.Context, opts OpenOptions) (Interface, error) {
	raw := strings.TrimSpace(opts.Target)
	if raw == "" {
		return autoDiscover(ctx, opts)
	}

	return openTarget(ctx, opts, transport.ParseTarget(raw))
}

func openTarget(ctx context.Context, opts OpenOptions, target transport.Target) (Interface, error) {
	var tr transport.Transport

	switch target.Kind {
	case transport.TargetMock:
		opts.Logger.Info("using mock radio interface")

		return NewMock(), nil
	case transport.TargetBLE:
		tr = transport.NewBluetoothTransport(target.Address, "")
	case transport.TargetTCP:
		tr = transport.NewIPTransport(target.Host, target.Port)
	case transport.TargetSerial:
		tr = transport.NewSerialTransport(target.Device, config.DefaultSerialBaud)
	default:
		return nil, fmt.Errorf("unsupported target kind %v", target.Kind)
	}

	codec, err := NewMeshtasticCodec()
	if err != nil {
		return nil, err
	}

	client := NewClient(opts.Logger, opts.Bus, opts.Sink, tr, codec)
	if err := client.Open(ctx); err != nil {
		return nil, err
	}
	opts.Logger.Info("radio interface open", "kind", target.Kind.String(), "target", target.String())

	return client, nil
}

func autoDiscover(ctx context.Context, opts OpenOptions) (Interface, error) {
	var errs []error

	for _, device := range transport.DiscoverSerialCandidates() {
		iface, err := openTarget(ctx, opts, transport.Target{Kind: transport.TargetSerial, Device: device})
		if err == nil {
			return iface, nil
		}
		opts.Logger.Debug("discovery candidate failed", "device", device, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", device, err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	iface, err := openTarget(ctx, opts, transport.Target{
		Kind: transport.TargetTCP,
		Host: discoveryTCPFallback,
		Port: transport.DefaultIPPort,
	})
	if err == nil {
		return iface, nil
	}
	errs = append(errs, fmt.Errorf("%s: %w", discoveryTCPFallback, err))

	return nil, fmt.Errorf("%w: %w", ErrNoInterface, errors.Join(errs...))
}
