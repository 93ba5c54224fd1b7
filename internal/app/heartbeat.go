package app

import (
	"log/slog"
	"time"

	"github.com/potatomesh/meshingest/internal/ingest"
	"github.com/potatomesh/meshingest/internal/uplink"
)

// heartbeatInterval spaces the ingestor self-reports.
const heartbeatInterval = time.Hour

// Heartbeat announces this ingestor to the dashboard once per hour. The
// announcement waits until the host radio reported its node id.
type Heartbeat struct {
	logger    *slog.Logger
	queue     ingest.Enqueuer
	startTime int64
	interval  time.Duration
	last      time.Time
}

func NewHeartbeat(logger *slog.Logger, queue ingest.Enqueuer, startTime time.Time) *Heartbeat {
	return &Heartbeat{
		logger:    logger,
		queue:     queue,
		startTime: startTime.Unix(),
		interval:  heartbeatInterval,
	}
}

// Tick enqueues a heartbeat record when one is due. Called by the
// supervisor on every idle tick.
func (h *Heartbeat) Tick(hostID string, now time.Time) {
	if hostID == "" {
		return
	}
	if !h.last.IsZero() && now.Sub(h.last) < h.interval {
		return
	}

	h.queue.Enqueue(uplink.PathIngestors, map[string]any{
		"node_id":        hostID,
		"start_time":     h.startTime,
		"last_seen_time": now.Unix(),
		"version":        BuildVersion(),
	}, uplink.PriorityDefault)
	h.last = now
	h.logger.Debug("ingestor heartbeat queued", "node_id", hostID)
}
