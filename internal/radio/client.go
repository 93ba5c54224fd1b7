package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/transport"
)

const (
	writeTimeout      = 6 * time.Second
	keepAliveInterval = 25 * time.Second

	// configWaitTimeout bounds how long Open waits for the device to
	// finish replaying its configuration. Capture past the deadline is
	// best-effort; the packet stream works without it.
	configWaitTimeout = 45 * time.Second
)

// Interface is the radio handle the supervisor owns.
type Interface interface {
	Nodes() ([]domain.Node, error)
	Connected() bool
	LocalNodeID() string
	Close() error
}

// SessionSink receives the per-connection device configuration as the
// driver decodes it.
type SessionSink interface {
	AddChannel(domain.ChannelInfo)
	SealChannels()
	SetMetadata(domain.RadioMetadata)
	SetHostID(id string)
}

// Client drives one radio connection: want-config handshake, frame reader,
// device keepalive, node map upkeep and envelope fan-out.
type Client struct {
	logger    *slog.Logger
	bus       bus.MessageBus
	sink      SessionSink
	transport transport.Transport
	codec     Codec
	store     *domain.NodeStore

	connected atomic.Bool
	localNum  atomic.Uint32

	readyOnce sync.Once
	ready     chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewClient(logger *slog.Logger, b bus.MessageBus, sink SessionSink, tr transport.Transport, codec Codec) *Client {
	return &Client{
		logger:    logger,
		bus:       b,
		sink:      sink,
		transport: tr,
		codec:     codec,
		store:     domain.NewNodeStore(),
		ready:     make(chan struct{}),
	}
}

// Open connects the transport, starts the reader and keepalive loops, and
// waits (bounded) for the device config replay to complete.
func (c *Client) Open(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", c.transport.Name(), err)
	}
	c.connected.Store(true)

	if err := c.sendWantConfig(ctx); err != nil {
		_ = c.transport.Close()
		c.connected.Store(false)

		return fmt.Errorf("want config: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.runReader(runCtx)
	go c.runKeepAlive(runCtx)

	select {
	case <-c.ready:
		c.logger.Info("device config replay complete", "transport", transportLabel(c.transport), "nodes", c.store.Len())
	case <-time.After(configWaitTimeout):
		c.logger.Warn("device config replay timed out, continuing", "transport", transportLabel(c.transport))
	case <-ctx.Done():
		_ = c.Close()

		return ctx.Err()
	case <-c.done:
		_ = c.Close()

		return fmt.Errorf("%s stream closed during config replay", c.transport.Name())
	}
	c.sink.SealChannels()

	return nil
}

// Nodes returns a copy of the current node map.
func (c *Client) Nodes() ([]domain.Node, error) {
	return c.store.Snapshot(), nil
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// LocalNodeID is the canonical id of the attached radio, or "" before the
// device reported it.
func (c *Client) LocalNodeID() string {
	num := c.localNum.Load()
	if num == 0 {
		return ""
	}

	return domain.FormatNodeNum(num)
}

func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.connected.Store(false)

	return c.transport.Close()
}

func (c *Client) sendWantConfig(ctx context.Context) error {
	payload, err := c.codec.EncodeWantConfig()
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.transport.WriteFrame(writeCtx, payload)
}

func (c *Client) runReader(ctx context.Context) {
	defer close(c.done)

	for {
		if ctx.Err() != nil {
			return
		}

		// No per-read deadline: a quiet mesh is normal and inactivity
		// handling belongs to the supervisor.
		payload, err := c.transport.ReadFrame(ctx)
		if err != nil {
			c.connected.Store(false)
			// An intentional Close cancels the context first; only an
			// unexpected stream failure is a link loss worth announcing.
			if ctx.Err() == nil {
				c.logger.Warn("radio read failed", "transport", transportLabel(c.transport), "error", err)
				c.bus.Publish(bus.ConnState{Connected: false, Transport: c.transport.Name(), Err: err}, bus.TopicConnState)
			}

			return
		}

		decoded, err := c.codec.DecodeFromRadio(payload)
		if err != nil {
			c.logger.Debug("undecodable frame", "len", len(payload), "error", err)

			continue
		}
		c.handleDecoded(decoded)
	}
}

func (c *Client) handleDecoded(decoded Decoded) {
	if decoded.MyNodeNum != 0 {
		c.localNum.Store(decoded.MyNodeNum)
		c.sink.SetHostID(domain.FormatNodeNum(decoded.MyNodeNum))
	}
	if decoded.Metadata != nil {
		c.sink.SetMetadata(*decoded.Metadata)
	}
	if decoded.Channel != nil {
		c.sink.AddChannel(*decoded.Channel)
	}
	if decoded.Node != nil {
		c.store.Upsert(*decoded.Node)
	}
	if decoded.WantConfigReady {
		c.readyOnce.Do(func() { close(c.ready) })
	}
	if decoded.Envelope != nil {
		c.publishEnvelope(decoded.Envelope)
	}
}

// publishEnvelope fans the packet out on the generic topic, the
// per-application topic and the legacy aliases.
func (c *Client) publishEnvelope(env *domain.Envelope) {
	topics := []string{bus.TopicPacket}
	if env.PortName != "" {
		topics = append(topics, bus.PacketTopic(env.PortName))
	}
	switch env.PortName {
	case "TEXT_MESSAGE_APP":
		topics = append(topics, bus.TopicPacketText)
	case "POSITION_APP":
		topics = append(topics, bus.TopicPacketPosition)
	case "NODEINFO_APP":
		topics = append(topics, bus.TopicPacketUser)
	}

	c.bus.Publish(env, topics...)
}

// transportLabel names the link for logs, appending the concrete endpoint
// when the transport can report one.
func transportLabel(tr transport.Transport) string {
	if resolver, ok := tr.(transport.StatusTargetResolver); ok {
		if target := resolver.StatusTarget(); target != "" {
			return tr.Name() + ":" + target
		}
	}

	return tr.Name()
}

func (c *Client) runKeepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := c.codec.EncodeHeartbeat()
			if err != nil {
				c.logger.Debug("encode device heartbeat failed", "error", err)

				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.transport.WriteFrame(writeCtx, payload)
			cancel()
			if err != nil {
				c.logger.Debug("device heartbeat write failed", "error", err)
			}
		}
	}
}
