package ingest

import (
	"strconv"
	"strings"

	"github.com/rabarar/meshtastic"

	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

func (d *Dispatcher) dispatchNodeInfo(env *domain.Envelope) {
	ni := env.NodeInfo

	nodeID := ""
	if ni != nil {
		nodeID = ni.NodeID
	}
	if nodeID == "" {
		nodeID = env.FromID
	}
	if nodeID == "" || strings.HasPrefix(nodeID, "^") {
		d.drop(env, "no-node-id")

		return
	}

	entry := map[string]any{}
	lastHeard := env.RxTime

	if ni != nil {
		if ni.Num != nil {
			entry["num"] = *ni.Num
		}
		if ni.User != nil {
			entry["user"] = normalizeUser(ni.User)
		}
		if ni.Position != nil {
			entry["position"] = ni.Position
		}
		if ni.DeviceMetrics != nil {
			entry["deviceMetrics"] = ni.DeviceMetrics
		}
		if ni.LastHeard != nil && *ni.LastHeard > lastHeard {
			lastHeard = *ni.LastHeard
		}
		if ni.SNR != nil {
			entry["snr"] = *ni.SNR
		}
		if ni.Channel != nil {
			entry["channel"] = *ni.Channel
		}
		if ni.HopsAway != nil {
			entry["hopsAway"] = *ni.HopsAway
		}
		if ni.ViaMQTT != nil {
			entry["viaMqtt"] = *ni.ViaMQTT
		}
		if ni.IsFavorite != nil {
			entry["isFavorite"] = *ni.IsFavorite
		}
		if ni.IsIgnored != nil {
			entry["isIgnored"] = *ni.IsIgnored
		}
		if ni.IsKeyManuallyVerified != nil {
			entry["isKeyManuallyVerified"] = *ni.IsKeyManuallyVerified
		}
	}
	if _, ok := entry["num"]; !ok && env.FromNum != 0 {
		entry["num"] = env.FromNum
	}
	entry["lastHeard"] = lastHeard
	if env.HopLimit != nil {
		entry["hopLimit"] = *env.HopLimit
	}

	mergeMetadata(entry, d.session.Metadata())

	d.queue.Enqueue(uplink.PathNodes, map[string]any{nodeID: entry}, uplink.PriorityNodes)
}

// NodeRecord renders one node map entry as an /api/nodes body. The snapshot
// sender uses it for the bulk refresh.
func NodeRecord(node domain.Node, meta domain.RadioMetadata) (string, map[string]any) {
	if node.ID == "" {
		return "", nil
	}

	entry := map[string]any{
		"num":       node.Num,
		"lastHeard": node.LastHeard,
	}
	if node.User != nil {
		entry["user"] = normalizeUser(node.User)
	}
	if node.Position != nil {
		entry["position"] = node.Position
	}
	if node.DeviceMetrics != nil {
		entry["deviceMetrics"] = node.DeviceMetrics
	}
	if node.SNR != nil {
		entry["snr"] = *node.SNR
	}
	if node.Channel != nil {
		entry["channel"] = *node.Channel
	}
	if node.HopsAway != nil {
		entry["hopsAway"] = *node.HopsAway
	}
	if node.HopLimit != nil {
		entry["hopLimit"] = *node.HopLimit
	}
	if node.ViaMQTT != nil {
		entry["viaMqtt"] = *node.ViaMQTT
	}
	if node.IsFavorite != nil {
		entry["isFavorite"] = *node.IsFavorite
	}
	if node.IsIgnored != nil {
		entry["isIgnored"] = *node.IsIgnored
	}
	if node.IsKeyManuallyVerified != nil {
		entry["isKeyManuallyVerified"] = *node.IsKeyManuallyVerified
	}

	mergeMetadata(entry, meta)

	return node.ID, entry
}

// normalizeUser rewrites the user role to its uppercase enum name when the
// driver delivered it numerically.
func normalizeUser(user map[string]any) map[string]any {
	raw, ok := user["role"]
	if !ok {
		return user
	}
	name, changed := normalizeRole(raw)
	if !changed {
		return user
	}

	out := make(map[string]any, len(user))
	for k, v := range user {
		out[k] = v
	}
	out["role"] = name

	return out
}

func normalizeRole(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, false
	default:
		num, ok := domain.CoerceInt(val)
		if !ok {
			return "", false
		}
		if name, found := meshtastic.Config_DeviceConfig_Role_name[int32(num)]; found {
			return strings.ToUpper(name), true
		}

		return strconv.FormatInt(num, 10), true
	}
}
