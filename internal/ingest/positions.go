package ingest

import (
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

// positionIntScale converts the 1e-7 fixed-point coordinate fields to
// decimal degrees.
const positionIntScale = 1e-7

func (d *Dispatcher) dispatchPosition(env *domain.Envelope) {
	p := env.Position
	if p == nil {
		d.drop(env, "no-position-payload")

		return
	}

	body := baseRecord(env)
	body["node_id"] = env.FromID
	body["node_num"] = env.FromNum

	if lat, ok := resolveCoordinate(p.Latitude, p.LatitudeI); ok {
		body["latitude"] = lat
	}
	if lon, ok := resolveCoordinate(p.Longitude, p.LongitudeI); ok {
		body["longitude"] = lon
	}
	if p.Altitude != nil {
		body["altitude"] = float64(*p.Altitude)
	}
	if p.Time != nil {
		body["position_time"] = *p.Time
	}
	if p.LocationSource != "" {
		body["location_source"] = p.LocationSource
	}
	if p.PrecisionBits != nil {
		body["precision_bits"] = *p.PrecisionBits
	}
	if p.SatsInView != nil {
		body["sats_in_view"] = *p.SatsInView
	}
	if p.PDOP != nil {
		body["pdop"] = *p.PDOP
	}
	if p.GroundSpeed != nil {
		body["ground_speed"] = *p.GroundSpeed
	}
	if p.GroundTrack != nil {
		body["ground_track"] = *p.GroundTrack
	}
	if env.Bitfield != nil {
		body["bitfield"] = *env.Bitfield
	}
	if b64, ok := payloadB64(env); ok {
		body["payload_b64"] = b64
	}
	if p.Raw != nil {
		body["raw"] = p.Raw
	}

	d.finish(body)
	d.queue.Enqueue(uplink.PathPositions, body, uplink.PriorityPositions)
}

// resolveCoordinate prefers the decimal field and falls back to the
// fixed-point integer representation.
func resolveCoordinate(decimal *float64, fixed *int64) (float64, bool) {
	if decimal != nil {
		return *decimal, true
	}
	if fixed != nil {
		return float64(*fixed) * positionIntScale, true
	}

	return 0, false
}
