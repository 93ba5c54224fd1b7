package ingest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/domain"
)

func waitForRecords(t *testing.T, queue *fakeQueue, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.all()) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("queued %d records, want %d", len(queue.all()), want)
}

func TestReceiverDispatchesOncePerEnvelope(t *testing.T) {
	b := bus.NewPubSubBus()
	defer b.Shutdown()

	session := NewSession("", 0)
	queue := &fakeQueue{}
	ignored := NewIgnoredLog(slog.Default(), t.TempDir()+"/ignored.txt")
	dispatcher := NewDispatcher(slog.Default(), session, queue, ignored)

	r := NewReceiver(slog.Default(), b, session, dispatcher)
	stamp := time.Unix(5000, 0)
	r.now = func() time.Time { return stamp }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	// The driver publishes the same pointer on every matching topic.
	env := textEnvelope(42, 1_700_000_000, domain.BroadcastAlias, 1, "hi")
	b.Publish(env, bus.TopicPacket, bus.TopicPacketText, bus.PacketTopic("TEXT_MESSAGE_APP"))

	waitForRecords(t, queue, 1)
	time.Sleep(50 * time.Millisecond)

	if got := len(queue.all()); got != 1 {
		t.Fatalf("envelope dispatched %d times, want 1", got)
	}
	if got := session.LastPacketAt(); !got.Equal(stamp) {
		t.Fatalf("packet stamp %v, want %v", got, stamp)
	}
}

type panickingQueue struct{}

func (panickingQueue) Enqueue(string, map[string]any, int) {
	panic("enqueue blew up")
}

func TestReceiverSurvivesHandlerPanic(t *testing.T) {
	b := bus.NewPubSubBus()
	defer b.Shutdown()

	session := NewSession("", 0)
	ignored := NewIgnoredLog(slog.Default(), t.TempDir()+"/ignored.txt")
	dispatcher := NewDispatcher(slog.Default(), session, panickingQueue{}, ignored)

	r := NewReceiver(slog.Default(), b, session, dispatcher)
	var clock int64
	r.now = func() time.Time {
		clock++

		return time.Unix(clock, 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	b.Publish(textEnvelope(1, 1_700_000_000, domain.BroadcastAlias, 1, "boom"), bus.TopicPacket)
	b.Publish(textEnvelope(2, 1_700_000_001, domain.BroadcastAlias, 1, "boom"), bus.TopicPacket)

	// The second stamp only lands if the first panic was recovered.
	second := time.Unix(2, 0)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if session.LastPacketAt().Equal(second) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("receiver stopped processing after panic")
}

func TestReceiverIgnoresForeignMessages(t *testing.T) {
	b := bus.NewPubSubBus()
	defer b.Shutdown()

	session := NewSession("", 0)
	queue := &fakeQueue{}
	ignored := NewIgnoredLog(slog.Default(), t.TempDir()+"/ignored.txt")
	dispatcher := NewDispatcher(slog.Default(), session, queue, ignored)

	r := NewReceiver(slog.Default(), b, session, dispatcher)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	b.Publish("not an envelope", bus.TopicPacket)
	b.Publish(textEnvelope(7, 1_700_000_002, domain.BroadcastAlias, 1, "hi"), bus.TopicPacket)

	waitForRecords(t, queue, 1)
	if got := queue.all()[0].body["id"]; got != uint32(7) {
		t.Fatalf("dispatched id %v, want 7", got)
	}
}
