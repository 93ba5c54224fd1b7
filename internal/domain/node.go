package domain

import "time"

// Node is one entry of the driver-maintained node map. The map sections hold
// the protobuf views exactly as decoded so snapshots can forward them
// verbatim.
type Node struct {
	ID  string
	Num uint32

	User          map[string]any
	Position      map[string]any
	DeviceMetrics map[string]any

	LastHeard             int64
	SNR                   *float64
	Channel               *int64
	ViaMQTT               *bool
	HopsAway              *int64
	HopLimit              *int64
	IsFavorite            *bool
	IsIgnored             *bool
	IsKeyManuallyVerified *bool

	UpdatedAt time.Time
}

// ChannelInfo is one row of the device channel table.
type ChannelInfo struct {
	Index int
	Name  string
}

// RadioMetadata is the LoRa configuration captured once per session and
// merged into every outbound record.
type RadioMetadata struct {
	// FreqMHz is the operating frequency floored to MHz when it could be
	// derived numerically; FreqLabel keeps the raw region label otherwise.
	FreqMHz     *int64
	FreqLabel   string
	ModemPreset string
}

// Freq returns the value to publish as lora_freq, or nil when unknown.
func (m RadioMetadata) Freq() any {
	if m.FreqMHz != nil {
		return *m.FreqMHz
	}
	if m.FreqLabel != "" {
		return m.FreqLabel
	}

	return nil
}

// Empty reports whether no radio metadata was captured.
func (m RadioMetadata) Empty() bool {
	return m.FreqMHz == nil && m.FreqLabel == "" && m.ModemPreset == ""
}
