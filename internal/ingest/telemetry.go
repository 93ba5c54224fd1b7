package ingest

import (
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

func (d *Dispatcher) dispatchTelemetry(env *domain.Envelope) {
	t := env.Telemetry
	if t == nil {
		d.drop(env, "no-telemetry-payload")

		return
	}

	if host := d.session.HostID(); host != "" && env.FromID == host {
		ok, wait := d.session.AcceptHostTelemetry(env.RxTime)
		if !ok {
			d.logger.Info("suppressing host telemetry",
				"from", env.FromID, "minutes_left", (wait+59)/60)

			return
		}
	}

	body := baseRecord(env)
	body["node_id"] = env.FromID
	body["node_num"] = env.FromNum
	body["portnum"] = portnumValue(env)
	if t.Time != nil {
		body["telemetry_time"] = *t.Time
	} else {
		body["telemetry_time"] = env.RxTime
	}
	if b64, ok := payloadB64(env); ok {
		body["payload_b64"] = b64
	}

	putInt := func(key string, v *int64) {
		if v != nil {
			body[key] = *v
		}
	}
	putFloat := func(key string, v *float64) {
		if v != nil {
			body[key] = *v
		}
	}

	putInt("battery_level", t.BatteryLevel)
	putFloat("voltage", t.Voltage)
	putFloat("channel_utilization", t.ChannelUtilization)
	putFloat("air_util_tx", t.AirUtilTx)
	putInt("uptime_seconds", t.UptimeSeconds)

	putFloat("temperature", t.Temperature)
	putFloat("relative_humidity", t.RelativeHumidity)
	putFloat("barometric_pressure", t.BarometricPressure)
	putFloat("gas_resistance", t.GasResistance)
	putFloat("current", t.Current)
	putInt("iaq", t.IAQ)
	putFloat("distance", t.Distance)
	putFloat("lux", t.Lux)
	putFloat("white_lux", t.WhiteLux)
	putFloat("ir_lux", t.IRLux)
	putFloat("uv_lux", t.UVLux)
	putInt("wind_direction", t.WindDirection)
	putFloat("wind_speed", t.WindSpeed)
	putFloat("wind_gust", t.WindGust)
	putFloat("wind_lull", t.WindLull)
	putFloat("weight", t.Weight)
	putFloat("radiation", t.Radiation)
	putFloat("rainfall_1h", t.Rainfall1H)
	putFloat("rainfall_24h", t.Rainfall24H)
	putInt("soil_moisture", t.SoilMoisture)
	putFloat("soil_temperature", t.SoilTemperature)

	d.finish(body)
	d.queue.Enqueue(uplink.PathTelemetry, body, uplink.PriorityTelemetry)
}
