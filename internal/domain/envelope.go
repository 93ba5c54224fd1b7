package domain

import "sync/atomic"

// Envelope is one decoded mesh packet as it travels from the radio driver to
// the normalisers. Exactly one of the payload pointers is set for decoded
// packets; encrypted packets carry only the ciphertext.
type Envelope struct {
	claimed atomic.Bool

	PacketID uint32
	FromNum  uint32
	ToNum    uint32
	FromID   string
	ToID     string

	Channel  int
	RxTime   int64
	RxSNR    *float64
	RxRSSI   *int64
	HopLimit *int64
	HopStart *int64
	WantAck  bool
	ViaMQTT  bool

	PortNum  int32
	PortName string

	// Data envelope fields shared by several applications.
	RequestID uint32
	ReplyID   uint32
	Emoji     uint32
	Bitfield  *int64

	// Raw application payload bytes as carried on the wire.
	Payload []byte

	// Encrypted marks packets whose payload could not be decoded.
	Encrypted bool

	Text      *TextPayload
	Position  *PositionPayload
	NodeInfo  *NodeInfoPayload
	Neighbors *NeighborInfoPayload
	Telemetry *TelemetryPayload
	Route     *RoutePayload
}

// Claim marks the envelope as consumed. The bus delivers the same envelope
// once per matching topic; only the first claim wins.
func (e *Envelope) Claim() bool {
	return e.claimed.CompareAndSwap(false, true)
}

// IsBroadcast reports whether the packet was addressed to every node.
func (e *Envelope) IsBroadcast() bool {
	return e.ToNum == BroadcastNodeNum || e.ToID == BroadcastAlias
}

// IsReaction reports whether the packet is a tapback-style reply.
func (e *Envelope) IsReaction() bool {
	return e.Emoji != 0 && e.ReplyID != 0
}

// TextPayload carries a TEXT_MESSAGE_APP body.
type TextPayload struct {
	Text string
}

// PositionPayload carries a POSITION_APP body. Decimal degrees are preferred
// when present; otherwise the 1e-7 integer fields are used.
type PositionPayload struct {
	Latitude   *float64
	Longitude  *float64
	LatitudeI  *int64
	LongitudeI *int64

	Altitude       *int64
	Time           *int64
	LocationSource string
	PrecisionBits  *int64
	SatsInView     *int64
	PDOP           *int64
	GroundSpeed    *int64
	GroundTrack    *int64

	// Raw is the recursively converted protobuf section, forwarded verbatim.
	Raw map[string]any
}

// NodeInfoPayload is the driver's decoded view of a NODEINFO_APP packet.
// The maps mirror the protobuf sections field for field.
type NodeInfoPayload struct {
	NodeID                string
	Num                   *int64
	User                  map[string]any
	Position              map[string]any
	DeviceMetrics         map[string]any
	LastHeard             *int64
	SNR                   *float64
	Channel               *int64
	HopsAway              *int64
	ViaMQTT               *bool
	IsFavorite            *bool
	IsIgnored             *bool
	IsKeyManuallyVerified *bool
}

// NeighborInfoPayload carries a NEIGHBORINFO_APP body.
type NeighborInfoPayload struct {
	NodeID                    string
	NodeNum                   *int64
	LastSentByID              string
	NodeBroadcastIntervalSecs *int64
	Neighbors                 []Neighbor
}

// Neighbor is one adjacency entry inside a neighbor report.
type Neighbor struct {
	NodeID string
	Num    *int64
	SNR    *float64
}

// TelemetryPayload carries a TELEMETRY_APP body flattened across the device
// and environment metric sections.
type TelemetryPayload struct {
	Time *int64

	BatteryLevel       *int64
	Voltage            *float64
	ChannelUtilization *float64
	AirUtilTx          *float64
	UptimeSeconds      *int64

	Temperature        *float64
	RelativeHumidity   *float64
	BarometricPressure *float64
	GasResistance      *float64
	Current            *float64
	IAQ                *int64
	Distance           *float64
	Lux                *float64
	WhiteLux           *float64
	IRLux              *float64
	UVLux              *float64
	WindDirection      *int64
	WindSpeed          *float64
	WindGust           *float64
	WindLull           *float64
	Weight             *float64
	Radiation          *float64
	Rainfall1H         *float64
	Rainfall24H        *float64
	SoilMoisture       *int64
	SoilTemperature    *float64
}

// RoutePayload carries a TRACEROUTE_APP route discovery body.
type RoutePayload struct {
	Route      []int64
	RouteBack  []int64
	SNRTowards []float64
	SNRBack    []float64
}
