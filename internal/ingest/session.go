package ingest

import (
	"sync"
	"time"

	"github.com/potatomesh/meshingest/internal/domain"
)

// hostTelemetryMinGap is the minimum spacing between accepted telemetry
// reports from the locally attached radio.
const hostTelemetryMinGap = 3600

// Session holds the per-connection state shared between the radio driver,
// the normalisers and the supervisor. Channel table and radio metadata are
// write-once per session; Reset starts a fresh session on reconnect.
type Session struct {
	channelName  string
	primaryIndex int

	mu            sync.Mutex
	channels      map[int]string
	channelsFinal bool
	meta          domain.RadioMetadata
	metaFinal     bool
	hostID        string

	lastHostTelemetry int64
	lastPacketAt      time.Time
}

// NewSession builds a session. channelName is the configured fallback name
// for an unnamed primary channel ($CHANNEL); primaryIndex is where the
// primary channel is published ($CHANNEL_INDEX, normally 0).
func NewSession(channelName string, primaryIndex int) *Session {
	return &Session{
		channelName:  channelName,
		primaryIndex: primaryIndex,
		channels:     make(map[int]string),
	}
}

// Reset clears everything captured from the previous connection. The host
// telemetry clock survives so a reconnect cannot bypass the rate limit.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels = make(map[int]string)
	s.channelsFinal = false
	s.meta = domain.RadioMetadata{}
	s.metaFinal = false
	s.hostID = ""
}

// AddChannel records one channel table row during the config phase. Rows
// arriving after the table was sealed are ignored.
func (s *Session) AddChannel(row domain.ChannelInfo) {
	index := row.Index
	if index == 0 {
		index = s.primaryIndex
	}

	name := row.Name
	if name == "" && index == s.primaryIndex {
		name = s.channelName
	}
	if name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channelsFinal {
		return
	}
	if _, dup := s.channels[index]; dup {
		return
	}
	s.channels[index] = name
}

// SealChannels marks the channel table authoritative for the rest of the
// session.
func (s *Session) SealChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelsFinal = true
}

// ChannelName resolves a channel index to its captured name.
func (s *Session) ChannelName(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.channels[index]

	return name, ok
}

// SetMetadata captures the LoRa configuration. The first capture per
// session wins.
func (s *Session) SetMetadata(meta domain.RadioMetadata) {
	if meta.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metaFinal {
		return
	}
	s.meta = meta
	s.metaFinal = true
}

// Metadata returns the captured radio metadata, possibly empty.
func (s *Session) Metadata() domain.RadioMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.meta
}

// SetHostID records the canonical id of the attached radio once per
// session.
func (s *Session) SetHostID(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hostID != "" {
		return
	}
	s.hostID = id
}

func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hostID
}

// AcceptHostTelemetry decides whether a telemetry report from the host
// radio passes the hourly rate limit. Accepted reports advance the clock;
// suppressed ones do not. The second return value is the seconds remaining
// until the next report would be accepted.
func (s *Session) AcceptHostTelemetry(rxTime int64) (bool, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastHostTelemetry != 0 && rxTime < s.lastHostTelemetry+hostTelemetryMinGap {
		return false, s.lastHostTelemetry + hostTelemetryMinGap - rxTime
	}
	s.lastHostTelemetry = rxTime

	return true, 0
}

// MarkPacket stamps the most recent packet arrival, read by the supervisor
// inactivity detector.
func (s *Session) MarkPacket(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.After(s.lastPacketAt) {
		s.lastPacketAt = at
	}
}

func (s *Session) LastPacketAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastPacketAt
}
