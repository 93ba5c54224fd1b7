package radio

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/rabarar/meshtastic"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const meshtasticPositionScale = 1e-7

// routeSNRScale converts RouteDiscovery snr values (dB * 4) to dB.
const routeSNRScale = 0.25

// MeshtasticCodec translates Meshtastic protobuf frames into envelopes and
// node map updates.
type MeshtasticCodec struct {
	wantConfigID atomic.Uint32
	packetID     atomic.Uint32
	localNodeNum atomic.Uint32
	modemPreset  atomic.Int32

	now func() time.Time
}

func NewMeshtasticCodec() (*MeshtasticCodec, error) {
	var seedRaw [4]byte
	if _, err := rand.Read(seedRaw[:]); err != nil {
		return nil, fmt.Errorf("seed meshtastic codec packet id: %w", err)
	}
	seed := binary.BigEndian.Uint32(seedRaw[:])
	c := &MeshtasticCodec{now: time.Now}
	c.packetID.Store(seed)
	c.modemPreset.Store(int32(meshtastic.Config_LoRaConfig_LONG_FAST))

	return c, nil
}

// LocalNodeID returns the canonical id of the attached radio, or "" before
// the device reported its node number.
func (c *MeshtasticCodec) LocalNodeID() string {
	num := c.localNodeNum.Load()
	if num == 0 {
		return ""
	}

	return domain.FormatNodeNum(num)
}

func (c *MeshtasticCodec) EncodeWantConfig() ([]byte, error) {
	id := c.nextNonZeroID()
	wire := &meshtastic.ToRadio{PayloadVariant: &meshtastic.ToRadio_WantConfigId{WantConfigId: id}}
	payload, err := proto.Marshal(wire)
	if err != nil {
		return nil, err
	}
	c.wantConfigID.Store(id)

	return payload, nil
}

func (c *MeshtasticCodec) EncodeHeartbeat() ([]byte, error) {
	wire := &meshtastic.ToRadio{PayloadVariant: &meshtastic.ToRadio_Heartbeat{Heartbeat: &meshtastic.Heartbeat{}}}

	return proto.Marshal(wire)
}

func (c *MeshtasticCodec) DecodeFromRadio(payload []byte) (Decoded, error) {
	out := Decoded{Raw: payload}

	var wire meshtastic.FromRadio
	if err := proto.Unmarshal(payload, &wire); err != nil {
		return out, fmt.Errorf("decode fromradio protobuf: %w", err)
	}

	now := c.now()

	if my := wire.GetMyInfo(); my != nil && my.GetMyNodeNum() != 0 {
		c.localNodeNum.Store(my.GetMyNodeNum())
		out.MyNodeNum = my.GetMyNodeNum()
	}

	if cfg := wire.GetConfig(); cfg != nil {
		if lora := cfg.GetLora(); lora != nil {
			c.modemPreset.Store(int32(lora.GetModemPreset()))
			meta := radioMetadataFromLoRa(lora)
			out.Metadata = &meta
		}
	}

	if configID := wire.GetConfigCompleteId(); configID != 0 {
		out.ConfigCompleteID = configID
		expected := c.wantConfigID.Load()
		if expected != 0 && configID == expected {
			out.WantConfigReady = true
		}
	}

	if nodeInfo := wire.GetNodeInfo(); nodeInfo != nil {
		node := decodeNodeInfo(nodeInfo, now)
		out.Node = &node
	}

	if channelInfo := wire.GetChannel(); channelInfo != nil {
		if row, ok := decodeChannelInfo(channelInfo, c.defaultPresetName()); ok {
			out.Channel = &row
		}
	}

	if packet := wire.GetPacket(); packet != nil {
		env, node := decodePacket(packet, now)
		out.Envelope = env
		out.Node = node
	}

	return out, nil
}

// decodePacket turns one MeshPacket into an envelope plus, for node-bearing
// applications, a sparse node map update.
func decodePacket(packet *meshtastic.MeshPacket, now time.Time) (*domain.Envelope, *domain.Node) {
	env := &domain.Envelope{
		PacketID: packet.GetId(),
		FromNum:  packet.GetFrom(),
		ToNum:    packet.GetTo(),
		FromID:   packetNodeID(packet.GetFrom()),
		ToID:     packetDestID(packet.GetTo()),
		Channel:  int(packet.GetChannel()),
		RxTime:   packetTimestamp(packet.GetRxTime(), now),
		WantAck:  packet.GetWantAck(),
		ViaMQTT:  packet.GetViaMqtt(),
	}
	if snr := packet.GetRxSnr(); snr != 0 {
		v := float64(snr)
		env.RxSNR = &v
	}
	if rssi := packet.GetRxRssi(); rssi != 0 {
		v := int64(rssi)
		env.RxRSSI = &v
	}
	if hopLimit := packet.GetHopLimit(); hopLimit != 0 {
		v := int64(hopLimit)
		env.HopLimit = &v
	}
	if hopStart := packet.GetHopStart(); hopStart != 0 {
		v := int64(hopStart)
		env.HopStart = &v
	}

	decoded := packet.GetDecoded()
	if decoded == nil {
		env.Encrypted = true
		env.Payload = append([]byte(nil), packet.GetEncrypted()...)

		return env, nil
	}

	env.PortNum = int32(decoded.GetPortnum())
	env.PortName = decoded.GetPortnum().String()
	env.Payload = append([]byte(nil), decoded.GetPayload()...)
	env.RequestID = decoded.GetRequestId()
	env.ReplyID = decoded.GetReplyId()
	env.Emoji = decoded.GetEmoji()
	if decoded.Bitfield != nil {
		v := int64(decoded.GetBitfield())
		env.Bitfield = &v
	}

	var node *domain.Node

	switch decoded.GetPortnum() {
	case meshtastic.PortNum_TEXT_MESSAGE_APP:
		env.Text = &domain.TextPayload{Text: string(decoded.GetPayload())}
	case meshtastic.PortNum_POSITION_APP:
		var position meshtastic.Position
		if err := proto.Unmarshal(decoded.GetPayload(), &position); err == nil {
			env.Position = decodePositionPayload(&position)
			node = positionNodeUpdate(packet, &position, env.RxTime)
		}
	case meshtastic.PortNum_NODEINFO_APP:
		env.NodeInfo, node = decodeNodeInfoApp(packet, decoded.GetPayload(), env.RxTime)
	case meshtastic.PortNum_NEIGHBORINFO_APP:
		var neighborInfo meshtastic.NeighborInfo
		if err := proto.Unmarshal(decoded.GetPayload(), &neighborInfo); err == nil {
			env.Neighbors = decodeNeighborInfoPayload(&neighborInfo)
		}
	case meshtastic.PortNum_TELEMETRY_APP:
		var telemetry meshtastic.Telemetry
		if err := proto.Unmarshal(decoded.GetPayload(), &telemetry); err == nil {
			env.Telemetry = decodeTelemetryPayload(&telemetry)
			node = telemetryNodeUpdate(packet, &telemetry, env.RxTime)
		}
	case meshtastic.PortNum_TRACEROUTE_APP:
		var route meshtastic.RouteDiscovery
		if err := proto.Unmarshal(decoded.GetPayload(), &route); err == nil {
			env.Route = decodeRoutePayload(&route)
		}
	}

	return env, node
}

func decodePositionPayload(position *meshtastic.Position) *domain.PositionPayload {
	out := &domain.PositionPayload{Raw: rawMap(position)}

	if position.LatitudeI != nil {
		v := int64(position.GetLatitudeI())
		out.LatitudeI = &v
	}
	if position.LongitudeI != nil {
		v := int64(position.GetLongitudeI())
		out.LongitudeI = &v
	}
	if position.Altitude != nil {
		v := int64(position.GetAltitude())
		out.Altitude = &v
	}
	if t := position.GetTime(); t != 0 {
		v := int64(t)
		out.Time = &v
	}
	if src := position.GetLocationSource(); src != meshtastic.Position_LOC_UNSET {
		out.LocationSource = src.String()
	}
	if bits := position.GetPrecisionBits(); bits != 0 {
		v := int64(bits)
		out.PrecisionBits = &v
	}
	if sats := position.GetSatsInView(); sats != 0 {
		v := int64(sats)
		out.SatsInView = &v
	}
	if pdop := position.GetPDOP(); pdop != 0 {
		v := int64(pdop)
		out.PDOP = &v
	}
	if position.GroundSpeed != nil {
		v := int64(position.GetGroundSpeed())
		out.GroundSpeed = &v
	}
	if position.GroundTrack != nil {
		v := int64(position.GetGroundTrack())
		out.GroundTrack = &v
	}

	return out
}

// decodeNodeInfoApp parses a NODEINFO payload. Firmware broadcasts a bare
// User on the wire, but a full NodeInfo body is accepted too and wins when
// it names a node number. Payloads neither message can decode leave the
// envelope view empty.
func decodeNodeInfoApp(packet *meshtastic.MeshPacket, payload []byte, rxTime int64) (*domain.NodeInfoPayload, *domain.Node) {
	var info meshtastic.NodeInfo
	if err := proto.Unmarshal(payload, &info); err == nil && info.GetNum() != 0 {
		return nodeInfoAppPayload(&info, rxTime)
	}

	var user meshtastic.User
	if err := proto.Unmarshal(payload, &user); err != nil {
		return nil, nil
	}

	return decodeUserPayload(packet, &user, rxTime), userNodeUpdate(packet, &user, rxTime)
}

func nodeInfoAppPayload(info *meshtastic.NodeInfo, rxTime int64) (*domain.NodeInfoPayload, *domain.Node) {
	node := decodeNodeInfo(info, time.Unix(rxTime, 0))
	num := int64(info.GetNum())
	lastHeard := node.LastHeard

	out := &domain.NodeInfoPayload{
		NodeID:                node.ID,
		Num:                   &num,
		User:                  node.User,
		Position:              node.Position,
		DeviceMetrics:         node.DeviceMetrics,
		LastHeard:             &lastHeard,
		SNR:                   node.SNR,
		Channel:               node.Channel,
		HopsAway:              node.HopsAway,
		ViaMQTT:               node.ViaMQTT,
		IsFavorite:            node.IsFavorite,
		IsIgnored:             node.IsIgnored,
		IsKeyManuallyVerified: node.IsKeyManuallyVerified,
	}

	return out, &node
}

func decodeUserPayload(packet *meshtastic.MeshPacket, user *meshtastic.User, rxTime int64) *domain.NodeInfoPayload {
	out := &domain.NodeInfoPayload{
		User:      rawMap(user),
		LastHeard: &rxTime,
	}

	if id, ok := domain.CanonicalNodeID(user.GetId()); ok {
		out.NodeID = id
	} else if from := packet.GetFrom(); from != 0 {
		out.NodeID = domain.FormatNodeNum(from)
	}
	if num, ok := domain.NodeNumFromID(user.GetId()); ok {
		out.Num = &num
	} else if from := packet.GetFrom(); from != 0 {
		v := int64(from)
		out.Num = &v
	}
	if snr := packet.GetRxSnr(); snr != 0 {
		v := float64(snr)
		out.SNR = &v
	}
	if ch := packet.GetChannel(); ch != 0 {
		v := int64(ch)
		out.Channel = &v
	}
	if packet.GetViaMqtt() {
		v := true
		out.ViaMQTT = &v
	}

	return out
}

func decodeNeighborInfoPayload(neighborInfo *meshtastic.NeighborInfo) *domain.NeighborInfoPayload {
	out := &domain.NeighborInfoPayload{}

	if num := neighborInfo.GetNodeId(); num != 0 {
		out.NodeID = domain.FormatNodeNum(num)
		v := int64(num)
		out.NodeNum = &v
	}
	if last := neighborInfo.GetLastSentById(); last != 0 {
		out.LastSentByID = domain.FormatNodeNum(last)
	}
	if interval := neighborInfo.GetNodeBroadcastIntervalSecs(); interval != 0 {
		v := int64(interval)
		out.NodeBroadcastIntervalSecs = &v
	}

	for _, entry := range neighborInfo.GetNeighbors() {
		if entry.GetNodeId() == 0 {
			continue
		}
		num := int64(entry.GetNodeId())
		neighbor := domain.Neighbor{
			NodeID: domain.FormatNodeNum(entry.GetNodeId()),
			Num:    &num,
		}
		if snr := entry.GetSnr(); snr != 0 {
			v := float64(snr)
			neighbor.SNR = &v
		}
		out.Neighbors = append(out.Neighbors, neighbor)
	}

	return out
}

func decodeTelemetryPayload(telemetry *meshtastic.Telemetry) *domain.TelemetryPayload {
	out := &domain.TelemetryPayload{}

	if t := telemetry.GetTime(); t != 0 {
		v := int64(t)
		out.Time = &v
	}

	if dm := telemetry.GetDeviceMetrics(); dm != nil {
		if dm.BatteryLevel != nil {
			v := int64(dm.GetBatteryLevel())
			out.BatteryLevel = &v
		}
		if dm.Voltage != nil {
			v := float64(dm.GetVoltage())
			out.Voltage = &v
		}
		if dm.ChannelUtilization != nil {
			v := float64(dm.GetChannelUtilization())
			out.ChannelUtilization = &v
		}
		if dm.AirUtilTx != nil {
			v := float64(dm.GetAirUtilTx())
			out.AirUtilTx = &v
		}
		if dm.UptimeSeconds != nil {
			v := int64(dm.GetUptimeSeconds())
			out.UptimeSeconds = &v
		}
	}

	if env := telemetry.GetEnvironmentMetrics(); env != nil {
		applyEnvironmentMetrics(out, env)
	}

	// Some boards report supply readings through the power section.
	if power := telemetry.GetPowerMetrics(); power != nil {
		if out.Voltage == nil && power.Ch1Voltage != nil {
			v := float64(power.GetCh1Voltage())
			out.Voltage = &v
		}
		if out.Current == nil && power.Ch1Current != nil {
			v := float64(power.GetCh1Current())
			out.Current = &v
		}
	}

	if aq := telemetry.GetAirQualityMetrics(); aq != nil {
		if out.IAQ == nil && aq.PmVocIdx != nil {
			v := int64(aq.GetPmVocIdx())
			out.IAQ = &v
		}
	}

	return out
}

func applyEnvironmentMetrics(out *domain.TelemetryPayload, env *meshtastic.EnvironmentMetrics) {
	if env.Temperature != nil {
		v := float64(env.GetTemperature())
		out.Temperature = &v
	}
	if env.RelativeHumidity != nil {
		v := float64(env.GetRelativeHumidity())
		out.RelativeHumidity = &v
	}
	if env.BarometricPressure != nil {
		v := float64(env.GetBarometricPressure())
		out.BarometricPressure = &v
	}
	if env.GasResistance != nil {
		v := float64(env.GetGasResistance())
		out.GasResistance = &v
	}
	if env.Current != nil {
		v := float64(env.GetCurrent())
		out.Current = &v
	}
	if env.Iaq != nil {
		v := int64(env.GetIaq())
		out.IAQ = &v
	}
	if env.Distance != nil {
		v := float64(env.GetDistance())
		out.Distance = &v
	}
	if env.Lux != nil {
		v := float64(env.GetLux())
		out.Lux = &v
	}
	if env.WhiteLux != nil {
		v := float64(env.GetWhiteLux())
		out.WhiteLux = &v
	}
	if env.IrLux != nil {
		v := float64(env.GetIrLux())
		out.IRLux = &v
	}
	if env.UvLux != nil {
		v := float64(env.GetUvLux())
		out.UVLux = &v
	}
	if env.WindDirection != nil {
		v := int64(env.GetWindDirection())
		out.WindDirection = &v
	}
	if env.WindSpeed != nil {
		v := float64(env.GetWindSpeed())
		out.WindSpeed = &v
	}
	if env.WindGust != nil {
		v := float64(env.GetWindGust())
		out.WindGust = &v
	}
	if env.WindLull != nil {
		v := float64(env.GetWindLull())
		out.WindLull = &v
	}
	if env.Weight != nil {
		v := float64(env.GetWeight())
		out.Weight = &v
	}
	if env.Radiation != nil {
		v := float64(env.GetRadiation())
		out.Radiation = &v
	}
	if env.Rainfall_1H != nil {
		v := float64(env.GetRainfall_1H())
		out.Rainfall1H = &v
	}
	if env.Rainfall_24H != nil {
		v := float64(env.GetRainfall_24H())
		out.Rainfall24H = &v
	}
	if env.SoilMoisture != nil {
		v := int64(env.GetSoilMoisture())
		out.SoilMoisture = &v
	}
	if env.SoilTemperature != nil {
		v := float64(env.GetSoilTemperature())
		out.SoilTemperature = &v
	}
}

func decodeRoutePayload(route *meshtastic.RouteDiscovery) *domain.RoutePayload {
	out := &domain.RoutePayload{}

	for _, hop := range route.GetRoute() {
		out.Route = append(out.Route, int64(hop))
	}
	for _, hop := range route.GetRouteBack() {
		out.RouteBack = append(out.RouteBack, int64(hop))
	}
	for _, snr := range route.GetSnrTowards() {
		out.SNRTowards = append(out.SNRTowards, float64(snr)*routeSNRScale)
	}
	for _, snr := range route.GetSnrBack() {
		out.SNRBack = append(out.SNRBack, float64(snr)*routeSNRScale)
	}

	return out
}

// decodeNodeInfo converts a config-phase NodeInfo frame into a node map
// entry.
func decodeNodeInfo(nodeInfo *meshtastic.NodeInfo, now time.Time) domain.Node {
	node := domain.Node{
		ID:        domain.FormatNodeNum(nodeInfo.GetNum()),
		Num:       nodeInfo.GetNum(),
		LastHeard: int64(nodeInfo.GetLastHeard()),
		UpdatedAt: now,
	}
	if node.LastHeard == 0 {
		node.LastHeard = now.Unix()
	}

	if user := nodeInfo.GetUser(); user != nil {
		node.User = rawMap(user)
	}
	if position := nodeInfo.GetPosition(); position != nil {
		if lat, lon, ok := positionCoordinates(position); ok {
			node.Position = rawMap(position)
			node.Position["latitude"] = lat
			node.Position["longitude"] = lon
		}
	}
	if dm := nodeInfo.GetDeviceMetrics(); dm != nil {
		node.DeviceMetrics = rawMap(dm)
	}
	if snr := nodeInfo.GetSnr(); snr != 0 {
		v := float64(snr)
		node.SNR = &v
	}
	if ch := nodeInfo.GetChannel(); ch != 0 {
		v := int64(ch)
		node.Channel = &v
	}
	if nodeInfo.GetViaMqtt() {
		v := true
		node.ViaMQTT = &v
	}
	if nodeInfo.HopsAway != nil {
		v := int64(nodeInfo.GetHopsAway())
		node.HopsAway = &v
	}
	if nodeInfo.GetIsFavorite() {
		v := true
		node.IsFavorite = &v
	}
	if nodeInfo.GetIsIgnored() {
		v := true
		node.IsIgnored = &v
	}
	if nodeInfo.GetIsKeyManuallyVerified() {
		v := true
		node.IsKeyManuallyVerified = &v
	}

	return node
}

func userNodeUpdate(packet *meshtastic.MeshPacket, user *meshtastic.User, rxTime int64) *domain.Node {
	if packet.GetFrom() == 0 {
		return nil
	}

	node := &domain.Node{
		ID:        domain.FormatNodeNum(packet.GetFrom()),
		Num:       packet.GetFrom(),
		User:      rawMap(user),
		LastHeard: rxTime,
	}
	if snr := packet.GetRxSnr(); snr != 0 {
		v := float64(snr)
		node.SNR = &v
	}
	if ch := packet.GetChannel(); ch != 0 {
		v := int64(ch)
		node.Channel = &v
	}

	return node
}

func positionNodeUpdate(packet *meshtastic.MeshPacket, position *meshtastic.Position, rxTime int64) *domain.Node {
	if packet.GetFrom() == 0 {
		return nil
	}
	lat, lon, ok := positionCoordinates(position)
	if !ok {
		return nil
	}

	raw := rawMap(position)
	raw["latitude"] = lat
	raw["longitude"] = lon

	return &domain.Node{
		ID:        domain.FormatNodeNum(packet.GetFrom()),
		Num:       packet.GetFrom(),
		Position:  raw,
		LastHeard: rxTime,
	}
}

func telemetryNodeUpdate(packet *meshtastic.MeshPacket, telemetry *meshtastic.Telemetry, rxTime int64) *domain.Node {
	if packet.GetFrom() == 0 {
		return nil
	}
	dm := telemetry.GetDeviceMetrics()
	if dm == nil {
		return nil
	}

	return &domain.Node{
		ID:            domain.FormatNodeNum(packet.GetFrom()),
		Num:           packet.GetFrom(),
		DeviceMetrics: rawMap(dm),
		LastHeard:     rxTime,
	}
}

func decodeChannelInfo(channelInfo *meshtastic.Channel, presetName string) (domain.ChannelInfo, bool) {
	role := channelInfo.GetRole()
	if role == meshtastic.Channel_DISABLED {
		return domain.ChannelInfo{}, false
	}

	idx := int(channelInfo.GetIndex())
	name := strings.TrimSpace(channelInfo.GetSettings().GetName())

	switch role {
	case meshtastic.Channel_PRIMARY:
		// The primary channel always sits at index 0; unnamed primaries
		// fall back to the modem preset.
		idx = 0
		if name == "" {
			name = presetName
		}
	case meshtastic.Channel_SECONDARY:
		if idx < 0 || name == "" {
			return domain.ChannelInfo{}, false
		}
	default:
		return domain.ChannelInfo{}, false
	}

	return domain.ChannelInfo{Index: idx, Name: name}, true
}

func (c *MeshtasticCodec) defaultPresetName() string {
	preset := meshtastic.Config_LoRaConfig_ModemPreset(c.modemPreset.Load())

	return camelizeEnum(preset.String())
}

func radioMetadataFromLoRa(lora *meshtastic.Config_LoRaConfig) domain.RadioMetadata {
	meta := domain.RadioMetadata{
		ModemPreset: camelizeEnum(lora.GetModemPreset().String()),
	}

	if freq := lora.GetOverrideFrequency(); freq > 0 {
		v := int64(math.Floor(float64(freq)))
		meta.FreqMHz = &v

		return meta
	}

	label := lora.GetRegion().String()
	if label == "" || label == "UNSET" {
		return meta
	}
	if mhz, ok := digitsRun(label); ok {
		meta.FreqMHz = &mhz
	} else {
		meta.FreqLabel = label
	}

	return meta
}

// digitsRun extracts the first run of decimal digits from an enum label,
// e.g. "EU_868" -> 868.
func digitsRun(label string) (int64, bool) {
	start := -1
	for i, r := range label {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}

			continue
		}
		if start >= 0 {
			n, err := parseDigits(label[start:i])

			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := parseDigits(label[start:])

		return n, err == nil
	}

	return 0, false
}

func parseDigits(s string) (int64, error) {
	var n int64
	for _, r := range s {
		n = n*10 + int64(r-'0')
	}

	return n, nil
}

// camelizeEnum converts SCREAMING_SNAKE enum labels to CamelCase, e.g.
// "LONG_FAST" -> "LongFast".
func camelizeEnum(label string) string {
	parts := strings.Split(label, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}

	return b.String()
}

func positionCoordinates(position *meshtastic.Position) (float64, float64, bool) {
	if position == nil || position.LatitudeI == nil || position.LongitudeI == nil {
		return 0, 0, false
	}

	lat := float64(position.GetLatitudeI()) * meshtasticPositionScale
	lon := float64(position.GetLongitudeI()) * meshtasticPositionScale
	if !isValidNodeCoordinate(lat, lon) {
		return 0, 0, false
	}

	return lat, lon, true
}

func isValidNodeCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}

	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func packetNodeID(num uint32) string {
	if num == 0 {
		return ""
	}
	if num == domain.BroadcastNodeNum {
		return domain.BroadcastAlias
	}

	return domain.FormatNodeNum(num)
}

func packetDestID(num uint32) string {
	if num == domain.BroadcastNodeNum {
		return domain.BroadcastAlias
	}
	if num == 0 {
		return ""
	}

	return domain.FormatNodeNum(num)
}

func packetTimestamp(epochSec uint32, fallback time.Time) int64 {
	if epochSec == 0 {
		return fallback.Unix()
	}

	return int64(epochSec)
}

// rawMap renders a protobuf section the way the dashboard expects it:
// camelCase keys, enums as names, recursively converted.
func rawMap(msg proto.Message) map[string]any {
	if msg == nil {
		return nil
	}

	raw, err := protojson.Marshal(msg)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	return out
}

func (c *MeshtasticCodec) nextNonZeroID() uint32 {
	for {
		id := c.packetID.Add(1)
		if id != 0 {
			return id
		}
	}
}
