package radio

import "github.com/potatomesh/meshingest/internal/domain"

// Decoded is a parsed inbound radio frame. Config-phase frames populate the
// session fields; mesh packets populate Envelope and, for node-bearing
// applications, a sparse Node update for the local node map.
type Decoded struct {
	Raw []byte

	Envelope *domain.Envelope
	Node     *domain.Node

	Channel  *domain.ChannelInfo
	Metadata *domain.RadioMetadata

	MyNodeNum        uint32
	ConfigCompleteID uint32
	WantConfigReady  bool
}

// Codec translates between transport frames and decoded events.
type Codec interface {
	EncodeWantConfig() ([]byte, error)
	EncodeHeartbeat() ([]byte, error)
	DecodeFromRadio(payload []byte) (Decoded, error)
}
