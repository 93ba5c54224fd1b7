package ingest

import (
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

func (d *Dispatcher) dispatchNeighborInfo(env *domain.Envelope) {
	n := env.Neighbors
	if n == nil {
		d.drop(env, "no-neighborinfo-payload")

		return
	}

	nodeID := n.NodeID
	if nodeID == "" {
		nodeID = env.FromID
	}
	if nodeID == "" {
		d.drop(env, "no-node-id")

		return
	}

	neighbors := make([]map[string]any, 0, len(n.Neighbors))
	for _, neighbor := range n.Neighbors {
		if neighbor.NodeID == "" {
			continue
		}
		row := map[string]any{
			"neighbor_id": neighbor.NodeID,
			"rx_time":     env.RxTime,
			"rx_iso":      domain.Iso(float64(env.RxTime)),
		}
		if neighbor.Num != nil {
			row["neighbor_num"] = *neighbor.Num
		}
		if neighbor.SNR != nil {
			row["snr"] = *neighbor.SNR
		}
		neighbors = append(neighbors, row)
	}

	body := baseRecord(env)
	body["node_id"] = nodeID
	if n.NodeNum != nil {
		body["node_num"] = *n.NodeNum
	} else if env.FromNum != 0 {
		body["node_num"] = env.FromNum
	}
	body["neighbors"] = neighbors
	if n.NodeBroadcastIntervalSecs != nil {
		body["node_broadcast_interval_secs"] = *n.NodeBroadcastIntervalSecs
	}
	if n.LastSentByID != "" {
		body["last_sent_by_id"] = n.LastSentByID
	}

	d.finish(body)
	d.queue.Enqueue(uplink.PathNeighbors, body, uplink.PriorityNeighbors)
}
