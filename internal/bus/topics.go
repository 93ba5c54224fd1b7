package bus

// Topic layout. Decoded packets fan out on the generic topic, on the
// per-application topic and on the legacy aliases, so consumers can pick
// their granularity. The same envelope pointer is delivered on every
// matching topic.
const (
	TopicPacket         = "receive"
	TopicPacketText     = "receive.text"
	TopicPacketPosition = "receive.position"
	TopicPacketUser     = "receive.user"

	TopicConnState = "radio.state"
)

// PacketTopic returns the per-application topic for a portnum name, e.g.
// "receive.TEXT_MESSAGE_APP".
func PacketTopic(portName string) string {
	return TopicPacket + "." + portName
}

// ReceiverTopics lists every topic the packet receiver subscribes to.
func ReceiverTopics() []string {
	return []string{
		TopicPacket,
		TopicPacketText,
		TopicPacketPosition,
		TopicPacketUser,
		PacketTopic("TEXT_MESSAGE_APP"),
		PacketTopic("REACTION_APP"),
		PacketTopic("POSITION_APP"),
		PacketTopic("NODEINFO_APP"),
		PacketTopic("NEIGHBORINFO_APP"),
		PacketTopic("TELEMETRY_APP"),
		PacketTopic("TRACEROUTE_APP"),
	}
}

// ConnState describes the radio link as seen by the driver.
type ConnState struct {
	Connected bool
	Transport string
	Err       error
}
