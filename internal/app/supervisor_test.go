package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/config"
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/ingest"
	"github.com/potatomesh/meshingest/internal/radio"
	"github.com/potatomesh/meshingest/internal/uplink"
)

type queuedRecord struct {
	path     string
	priority int
	body     map[string]any
}

type fakeQueue struct {
	mu      sync.Mutex
	records []queuedRecord
}

func (q *fakeQueue) Enqueue(path string, body map[string]any, priority int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, queuedRecord{path: path, priority: priority, body: body})
}

func (q *fakeQueue) all() []queuedRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]queuedRecord(nil), q.records...)
}

type fakeIface struct {
	mu         sync.Mutex
	nodes      []domain.Node
	nodesErrs  int
	nodesCalls int
	connected  bool
	localID    string
	closed     int
	closeBlock chan struct{}
}

func (f *fakeIface) Nodes() ([]domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodesCalls++
	if f.nodesErrs > 0 {
		f.nodesErrs--

		return nil, errors.New("node map changed during iteration")
	}

	return f.nodes, nil
}

func (f *fakeIface) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connected
}

func (f *fakeIface) LocalNodeID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.localID
}

func (f *fakeIface) Close() error {
	if f.closeBlock != nil {
		<-f.closeBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++

	return nil
}

func (f *fakeIface) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.SnapshotInterval = 2 * time.Millisecond
	cfg.ReconnectInitial = time.Millisecond
	cfg.ReconnectMax = 4 * time.Millisecond
	cfg.CloseTimeout = 50 * time.Millisecond

	return cfg
}

func newTestSupervisor(cfg config.Config, open RadioOpener, queue *fakeQueue) (*Supervisor, *ingest.Session) {
	session := ingest.NewSession("", 0)
	heartbeat := NewHeartbeat(slog.Default(), queue, time.Unix(1000, 0))

	return NewSupervisor(slog.Default(), cfg, nil, open, queue, session, heartbeat), session
}

func TestSupervisorFatalWhenNoInterface(t *testing.T) {
	open := func(ctx context.Context) (radio.Interface, error) {
		return nil, fmt.Errorf("%w: no serial ports", radio.ErrNoInterface)
	}
	s, _ := newTestSupervisor(testConfig(), open, &fakeQueue{})

	err := s.Run(context.Background())
	if !errors.Is(err, radio.ErrNoInterface) {
		t.Fatalf("Run returned %v, want ErrNoInterface", err)
	}
}

func TestSupervisorRetriesTransientOpenFailures(t *testing.T) {
	iface := &fakeIface{connected: true}
	var mu sync.Mutex
	opens := 0
	open := func(ctx context.Context) (radio.Interface, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		if opens < 3 {
			return nil, errors.New("dial failed")
		}

		return iface, nil
	}
	s, _ := newTestSupervisor(testConfig(), open, &fakeQueue{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	got := opens
	mu.Unlock()
	if got != 3 {
		t.Fatalf("opened %d times, want 3", got)
	}
	if iface.closeCount() == 0 {
		t.Fatal("interface left open on shutdown")
	}
}

func TestSupervisorResetsSessionPerConnection(t *testing.T) {
	iface := &fakeIface{connected: true}
	open := func(ctx context.Context) (radio.Interface, error) {
		return iface, nil
	}
	s, session := newTestSupervisor(testConfig(), open, &fakeQueue{})
	session.SetHostID("!0000dead")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if session.HostID() != "" {
		t.Fatal("stale host id survived the connect")
	}
}

func TestSnapshotEnqueuesNodeRecords(t *testing.T) {
	freq := int64(868)
	queue := &fakeQueue{}
	s, session := newTestSupervisor(testConfig(), nil, queue)
	session.SetMetadata(domain.RadioMetadata{FreqMHz: &freq, ModemPreset: "LongFast"})

	iface := &fakeIface{
		connected: true,
		nodes: []domain.Node{
			{ID: "!00000001", Num: 1, LastHeard: 1_700_000_000, User: map[string]any{"longName": "Alpha"}},
			{ID: "", Num: 2},
			{ID: "!00000003", Num: 3, LastHeard: 1_700_000_100},
		},
	}
	s.snapshot(iface)

	records := queue.all()
	if len(records) != 2 {
		t.Fatalf("queued %d records, want 2 (id-less node skipped)", len(records))
	}
	for _, rec := range records {
		if rec.path != uplink.PathNodes || rec.priority != uplink.PriorityNodes {
			t.Fatalf("queued to %s@%d", rec.path, rec.priority)
		}
	}
	entry, ok := records[0].body["!00000001"].(map[string]any)
	if !ok {
		t.Fatalf("body not keyed by node id: %v", records[0].body)
	}
	if entry["lastHeard"] != int64(1_700_000_000) {
		t.Fatalf("lastHeard = %v", entry["lastHeard"])
	}
	if entry["lora_freq"] != int64(868) || entry["modem_preset"] != "LongFast" {
		t.Fatalf("radio metadata missing from snapshot entry: %v", entry)
	}
}

func TestSnapshotRetriesRacyNodeMap(t *testing.T) {
	queue := &fakeQueue{}
	s, _ := newTestSupervisor(testConfig(), nil, queue)

	iface := &fakeIface{
		connected: true,
		nodesErrs: 2,
		nodes:     []domain.Node{{ID: "!00000001", Num: 1}},
	}
	s.snapshot(iface)

	if iface.nodesCalls != 3 {
		t.Fatalf("Nodes called %d times, want 3", iface.nodesCalls)
	}
	if len(queue.all()) != 1 {
		t.Fatalf("queued %d records, want 1", len(queue.all()))
	}
}

func TestSnapshotGivesUpAfterRetries(t *testing.T) {
	queue := &fakeQueue{}
	s, _ := newTestSupervisor(testConfig(), nil, queue)

	iface := &fakeIface{connected: true, nodesErrs: 10}
	s.snapshot(iface)

	if len(queue.all()) != 0 {
		t.Fatal("records queued from a failing node map")
	}
	if iface.nodesCalls != snapshotRetries {
		t.Fatalf("Nodes called %d times, want %d", iface.nodesCalls, snapshotRetries)
	}
}

func TestInactivityDetector(t *testing.T) {
	s, session := newTestSupervisor(testConfig(), nil, &fakeQueue{})
	s.inactivityWindow = time.Minute
	connectedAt := time.Unix(10_000, 0)

	t.Run("disconnected interface", func(t *testing.T) {
		s.lastInactivityReconnect = time.Time{}
		iface := &fakeIface{connected: false}
		reason, due := s.inactivityDue(iface, connectedAt, connectedAt.Add(2*time.Minute))
		if !due || reason != "interface disconnected" {
			t.Fatalf("due=%v reason=%q", due, reason)
		}
	})

	t.Run("silent mesh", func(t *testing.T) {
		s.lastInactivityReconnect = time.Time{}
		iface := &fakeIface{connected: true}
		reason, due := s.inactivityDue(iface, connectedAt, connectedAt.Add(2*time.Minute))
		if !due || reason != "no packets received" {
			t.Fatalf("due=%v reason=%q", due, reason)
		}
	})

	t.Run("recent packet holds the link", func(t *testing.T) {
		s.lastInactivityReconnect = time.Time{}
		iface := &fakeIface{connected: true}
		now := connectedAt.Add(2 * time.Minute)
		session.MarkPacket(now.Add(-30 * time.Second))
		if _, due := s.inactivityDue(iface, connectedAt, now); due {
			t.Fatal("reconnect triggered despite recent traffic")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		iface := &fakeIface{connected: false}
		now := connectedAt.Add(5 * time.Minute)
		s.lastInactivityReconnect = now.Add(-30 * time.Second)
		if _, due := s.inactivityDue(iface, connectedAt, now); due {
			t.Fatal("second reconnect inside the window")
		}
	})
}

func TestSupervisorReconnectsOnLinkLoss(t *testing.T) {
	b := bus.NewPubSubBus()
	defer b.Shutdown()

	cfg := testConfig()
	cfg.SnapshotInterval = time.Hour

	var mu sync.Mutex
	opens := 0
	iface := &fakeIface{connected: true}
	open := func(ctx context.Context) (radio.Interface, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++

		return iface, nil
	}

	session := ingest.NewSession("", 0)
	heartbeat := NewHeartbeat(slog.Default(), &fakeQueue{}, time.Unix(1000, 0))
	s := NewSupervisor(slog.Default(), cfg, b, open, &fakeQueue{}, session, heartbeat)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, "first connect", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return opens == 1
	})
	b.Publish(bus.ConnState{Connected: false, Transport: "serial", Err: errors.New("read failed")}, bus.TopicConnState)
	waitFor(t, "reconnect after link loss", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return opens >= 2
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if iface.closeCount() == 0 {
		t.Fatal("lost interface was not closed")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEnergySavingDutyCycle(t *testing.T) {
	cfg := testConfig()
	cfg.EnergySaving = true
	iface := &fakeIface{connected: true}
	s, _ := newTestSupervisor(cfg, nil, &fakeQueue{})
	s.energySleep = time.Millisecond

	connectedAt := time.Now().Add(-time.Hour)
	again := s.runSession(context.Background(), iface, connectedAt, connectedAt.Add(s.energyOnline))

	if !again {
		t.Fatal("energy cycle should lead to a reconnect, not termination")
	}
	if iface.closeCount() != 1 {
		t.Fatalf("interface closed %d times, want 1", iface.closeCount())
	}
}

func TestCloseInterfaceBounded(t *testing.T) {
	cfg := testConfig()
	cfg.CloseTimeout = 10 * time.Millisecond
	s, _ := newTestSupervisor(cfg, nil, &fakeQueue{})

	iface := &fakeIface{closeBlock: make(chan struct{})}
	start := time.Now()
	s.closeInterface(iface)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("closeInterface blocked for %v", elapsed)
	}
	close(iface.closeBlock)
}

func TestHostIDPrefersInterface(t *testing.T) {
	s, session := newTestSupervisor(testConfig(), nil, &fakeQueue{})
	session.SetHostID("!0000beef")

	if got := s.hostID(&fakeIface{localID: "!0000cafe"}); got != "!0000cafe" {
		t.Fatalf("hostID = %q, want interface id", got)
	}
	if got := s.hostID(&fakeIface{}); got != "!0000beef" {
		t.Fatalf("hostID = %q, want session fallback", got)
	}
}

func TestNextBackoff(t *testing.T) {
	cases := []struct {
		current, max, want time.Duration
	}{
		{time.Second, time.Minute, 2 * time.Second},
		{40 * time.Second, time.Minute, time.Minute},
		{time.Minute, time.Minute, time.Minute},
	}
	for _, tc := range cases {
		if got := nextBackoff(tc.current, tc.max); got != tc.want {
			t.Fatalf("nextBackoff(%v, %v) = %v, want %v", tc.current, tc.max, got, tc.want)
		}
	}
}
