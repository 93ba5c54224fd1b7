package ingest

import (
	"encoding/base64"
	"log/slog"

	"github.com/potatomesh/meshingest/internal/domain"
)

// Meshtastic application port numbers handled by the pipeline.
const (
	portText         int32 = 1
	portPosition     int32 = 3
	portNodeInfo     int32 = 4
	portTelemetry    int32 = 67
	portTraceroute   int32 = 70
	portNeighborInfo int32 = 71
)

// Enqueuer accepts normalised records for upload.
type Enqueuer interface {
	Enqueue(path string, body map[string]any, priority int)
}

// Dispatcher routes one claimed envelope to the matching normaliser and
// enqueues the resulting record. Packets no normaliser accepts end up in
// the ignored log.
type Dispatcher struct {
	logger  *slog.Logger
	session *Session
	queue   Enqueuer
	ignored *IgnoredLog
}

func NewDispatcher(logger *slog.Logger, session *Session, queue Enqueuer, ignored *IgnoredLog) *Dispatcher {
	return &Dispatcher{logger: logger, session: session, queue: queue, ignored: ignored}
}

// Dispatch order puts the high-volume applications first and leaves text as
// the catch-all that also absorbs encrypted frames.
func (d *Dispatcher) Dispatch(env *domain.Envelope) {
	if env == nil {
		return
	}
	if env.PacketID == 0 {
		d.drop(env, "missing-packet-id")

		return
	}

	switch {
	case env.PortNum == portTelemetry:
		d.dispatchTelemetry(env)
	case env.PortNum == portTraceroute || env.Route != nil:
		d.dispatchTraceroute(env)
	case env.PortNum == portNodeInfo:
		d.dispatchNodeInfo(env)
	case env.PortNum == portPosition:
		d.dispatchPosition(env)
	case env.PortNum == portNeighborInfo:
		d.dispatchNeighborInfo(env)
	case env.PortNum == portText || env.PortName == "REACTION_APP" || env.Encrypted:
		d.dispatchMessage(env)
	default:
		d.drop(env, "unsupported-port")
	}
}

func (d *Dispatcher) drop(env *domain.Envelope, reason string) {
	d.logger.Debug("packet dropped", "reason", reason, "port", env.PortName, "from", env.FromID)
	d.ignored.Record(reason, envelopeSummary(env))
}

// envelopeSummary is the packet view written to the ignored log: top-level
// fields only, never the payload.
func envelopeSummary(env *domain.Envelope) map[string]any {
	summary := map[string]any{
		"id":      env.PacketID,
		"from_id": env.FromID,
		"to_id":   env.ToID,
		"channel": env.Channel,
		"rx_time": env.RxTime,
	}
	if env.PortName != "" {
		summary["portnum"] = env.PortName
	} else if env.PortNum != 0 {
		summary["portnum"] = env.PortNum
	}
	if env.Encrypted {
		summary["encrypted"] = true
	}

	return summary
}

// baseRecord carries the fields shared by every outbound record.
func baseRecord(env *domain.Envelope) map[string]any {
	body := map[string]any{
		"id":      env.PacketID,
		"rx_time": env.RxTime,
		"rx_iso":  domain.Iso(float64(env.RxTime)),
		"from_id": env.FromID,
		"to_id":   env.ToID,
		"channel": env.Channel,
	}
	if env.RxSNR != nil {
		body["snr"] = *env.RxSNR
	}
	if env.RxRSSI != nil {
		body["rssi"] = *env.RxRSSI
	}
	if env.HopLimit != nil {
		body["hop_limit"] = *env.HopLimit
	}

	return body
}

func payloadB64(env *domain.Envelope) (string, bool) {
	if len(env.Payload) == 0 {
		return "", false
	}

	return base64.StdEncoding.EncodeToString(env.Payload), true
}

func portnumValue(env *domain.Envelope) any {
	if env.PortName != "" {
		return env.PortName
	}

	return env.PortNum
}

// finish merges the session radio metadata into a record. Metadata goes in
// last so packet fields can never mask it.
func (d *Dispatcher) finish(body map[string]any) {
	mergeMetadata(body, d.session.Metadata())
}

func mergeMetadata(body map[string]any, meta domain.RadioMetadata) {
	if freq := meta.Freq(); freq != nil {
		body["lora_freq"] = freq
	}
	if meta.ModemPreset != "" {
		body["modem_preset"] = meta.ModemPreset
	}
}
