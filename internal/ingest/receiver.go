package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/potatomesh/meshingest/internal/bus"
	"github.com/potatomesh/meshingest/internal/domain"
)

// Receiver consumes decoded envelopes off the bus and feeds the dispatcher.
// The same envelope arrives once per matching topic; the claim flag makes
// sure it is dispatched at most once.
type Receiver struct {
	logger     *slog.Logger
	bus        bus.MessageBus
	session    *Session
	dispatcher *Dispatcher

	now func() time.Time
}

func NewReceiver(logger *slog.Logger, b bus.MessageBus, session *Session, dispatcher *Dispatcher) *Receiver {
	return &Receiver{
		logger:     logger,
		bus:        b,
		session:    session,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Start subscribes and pumps deliveries until the context ends.
func (r *Receiver) Start(ctx context.Context) {
	topics := bus.ReceiverTopics()
	sub := r.bus.Subscribe(topics...)

	go func() {
		<-ctx.Done()
		r.bus.Unsubscribe(sub, topics...)
	}()

	go func() {
		for raw := range sub {
			env, ok := raw.(*domain.Envelope)
			if !ok {
				continue
			}
			r.handle(env)
		}
	}()
}

func (r *Receiver) handle(env *domain.Envelope) {
	if !env.Claim() {
		return
	}
	r.session.MarkPacket(r.now())

	defer func() {
		if rec := recover(); rec != nil {
			// Packet content stays out of the log; the summary keys
			// are enough to find the offender in debug capture.
			r.logger.Error("packet handler panicked",
				"panic", rec, "packet", envelopeSummary(env))
		}
	}()

	r.dispatcher.Dispatch(env)
}
