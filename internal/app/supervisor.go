package app

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/config"
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/ingest"
	"github.com/potatomesh/meshingest/internal/radio"
	"github.com/potatomesh/meshingest/internal/uplink"
)

const (
	// defaultInactivityWindow triggers a reconnect when neither the radio
	// nor the mesh produced anything for this long.
	defaultInactivityWindow = 5 * time.Minute

	// Energy saving duty cycle: stay online for the window, then close
	// the radio and sleep before reconnecting.
	energyOnlineWindow = 10 * time.Minute
	energySleepWindow  = 30 * time.Minute

	// snapshotRetries bounds re-reads of a node map that errors mid
	// iteration.
	snapshotRetries = 3
)

// RadioOpener opens the configured (or discovered) radio.
type RadioOpener func(ctx context.Context) (radio.Interface, error)

// Supervisor owns the radio handle: it connects, seeds the node snapshot,
// watches liveness, duty-cycles in energy saving mode and reconnects with
// exponential backoff.
type Supervisor struct {
	logger    *slog.Logger
	cfg       config.Config
	bus       bus.MessageBus
	open      RadioOpener
	queue     ingest.Enqueuer
	session   *ingest.Session
	heartbeat *Heartbeat

	inactivityWindow time.Duration
	energyOnline     time.Duration
	energySleep      time.Duration
	now              func() time.Time

	connCh                  bus.Subscription
	lastInactivityReconnect time.Time
	initialSnapshotSent     bool
}

func NewSupervisor(logger *slog.Logger, cfg config.Config, b bus.MessageBus, open RadioOpener, queue ingest.Enqueuer, session *ingest.Session, heartbeat *Heartbeat) *Supervisor {
	return &Supervisor{
		logger:           logger,
		cfg:              cfg,
		bus:              b,
		open:             open,
		queue:            queue,
		session:          session,
		heartbeat:        heartbeat,
		inactivityWindow: defaultInactivityWindow,
		energyOnline:     energyOnlineWindow,
		energySleep:      energySleepWindow,
		now:              time.Now,
	}
}

// Run blocks until the context is cancelled or no radio can be found.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.bus != nil {
		s.connCh = s.bus.Subscribe(bus.TopicConnState)
		defer s.bus.Unsubscribe(s.connCh, bus.TopicConnState)
	}
	retryDelay := s.cfg.ReconnectInitial

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.session.Reset()
		iface, err := s.open(ctx)
		if err != nil {
			if errors.Is(err, radio.ErrNoInterface) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("open radio failed", "error", err, "retry_in", retryDelay)
			if !waitOrStop(ctx, retryDelay) {
				return nil
			}
			retryDelay = nextBackoff(retryDelay, s.cfg.ReconnectMax)

			continue
		}
		retryDelay = s.cfg.ReconnectInitial
		s.drainConnEvents()

		connectedAt := s.now()
		energyDeadline := connectedAt.Add(s.energyOnline)
		s.snapshot(iface)

		if !s.runSession(ctx, iface, connectedAt, energyDeadline) {
			return nil
		}
	}
}

// runSession drives the idle tick loop of one connection. It returns false
// when the supervisor should terminate.
func (s *Supervisor) runSession(ctx context.Context, iface radio.Interface, connectedAt, energyDeadline time.Time) bool {
	for {
		switch s.waitTick(ctx) {
		case tickStop:
			s.closeInterface(iface)

			return false
		case tickLinkLost:
			s.lastInactivityReconnect = s.now()
			s.closeInterface(iface)

			return true
		}
		now := s.now()

		s.heartbeat.Tick(s.hostID(iface), now)

		if s.cfg.EnergySaving && now.After(energyDeadline) {
			s.logger.Info("energy saving: closing radio", "sleep", s.energySleep)
			s.closeInterface(iface)

			return waitOrStop(ctx, s.energySleep)
		}

		if reason, due := s.inactivityDue(iface, connectedAt, now); due {
			s.lastInactivityReconnect = now
			s.logger.Warn("reconnecting radio", "reason", reason)
			s.closeInterface(iface)

			return true
		}

		s.snapshot(iface)
	}
}

type tickResult int

const (
	tickElapsed tickResult = iota
	tickStop
	tickLinkLost
)

// waitTick sleeps one snapshot interval, waking early when the driver
// announces a dropped link so the reconnect does not wait out the tick.
func (s *Supervisor) waitTick(ctx context.Context) tickResult {
	timer := time.NewTimer(s.cfg.SnapshotInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return tickStop
		case msg, ok := <-s.connCh:
			if !ok {
				s.connCh = nil

				continue
			}
			if state, isState := msg.(bus.ConnState); isState && !state.Connected {
				s.logger.Warn("radio link lost", "transport", state.Transport, "error", state.Err)

				return tickLinkLost
			}
		case <-timer.C:
			return tickElapsed
		}
	}
}

// drainConnEvents discards link notifications queued before the current
// connection existed.
func (s *Supervisor) drainConnEvents() {
	for {
		select {
		case _, ok := <-s.connCh:
			if !ok {
				s.connCh = nil

				return
			}
		default:
			return
		}
	}
}

// inactivityDue checks the liveness window. Reconnects are rate limited to
// one per window so a dead-but-open interface cannot cause a tight loop.
func (s *Supervisor) inactivityDue(iface radio.Interface, connectedAt, now time.Time) (string, bool) {
	if s.inactivityWindow <= 0 {
		return "", false
	}
	if now.Sub(s.lastInactivityReconnect) < s.inactivityWindow {
		return "", false
	}

	if !iface.Connected() {
		return "interface disconnected", true
	}

	idleSince := connectedAt
	if last := s.session.LastPacketAt(); last.After(idleSince) {
		idleSince = last
	}
	if now.Sub(idleSince) >= s.inactivityWindow {
		return "no packets received", true
	}

	return "", false
}

// snapshot enqueues every known node as a bulk refresh record.
func (s *Supervisor) snapshot(iface radio.Interface) {
	var nodes []domain.Node
	var err error
	for attempt := 0; attempt < snapshotRetries; attempt++ {
		nodes, err = iface.Nodes()
		if err == nil {
			break
		}
		runtime.Gosched()
	}
	if err != nil {
		s.logger.Warn("node snapshot unavailable, skipping tick", "error", err)

		return
	}

	meta := s.session.Metadata()
	sent := 0
	for _, node := range nodes {
		id, entry := ingest.NodeRecord(node, meta)
		if id == "" {
			continue
		}
		s.queue.Enqueue(uplink.PathNodes, map[string]any{id: entry}, uplink.PriorityNodes)
		sent++
	}

	if sent > 0 && !s.initialSnapshotSent {
		s.initialSnapshotSent = true
		s.logger.Info("initial node snapshot queued", "nodes", sent)
	}
}

func (s *Supervisor) hostID(iface radio.Interface) string {
	if id := iface.LocalNodeID(); id != "" {
		return id
	}

	return s.session.HostID()
}

// closeInterface closes the radio on a helper goroutine bounded by the
// configured grace. A hung close leaks the helper but never blocks
// shutdown.
func (s *Supervisor) closeInterface(iface radio.Interface) {
	if s.cfg.CloseTimeout <= 0 {
		if err := iface.Close(); err != nil {
			s.logger.Warn("close radio failed", "error", err)
		}

		return
	}

	done := make(chan error, 1)
	go func() {
		done <- iface.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warn("close radio failed", "error", err)
		}
	case <-time.After(s.cfg.CloseTimeout):
		s.logger.Warn("close radio timed out", "timeout", s.cfg.CloseTimeout)
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}

	return next
}

func waitOrStop(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
