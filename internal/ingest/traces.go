package ingest

import (
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

func (d *Dispatcher) dispatchTraceroute(env *domain.Envelope) {
	// A zero-hop response is a valid direct path; the packet id (already
	// validated by Dispatch) is enough to keep the record.
	hops := []int64{}
	if env.Route != nil {
		hops = dedupHops(env.Route.Route, env.Route.RouteBack)
	}

	body := baseRecord(env)
	body["request_id"] = env.RequestID
	body["src"] = env.FromID
	body["dest"] = env.ToID
	body["hops"] = hops

	d.finish(body)
	d.queue.Enqueue(uplink.PathTraces, body, uplink.PriorityTraces)
}

// dedupHops builds the order-preserving union of the forward and return
// hop lists.
func dedupHops(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0, 8)
	for _, list := range lists {
		for _, hop := range list {
			if _, dup := seen[hop]; dup {
				continue
			}
			seen[hop] = struct{}{}
			out = append(out, hop)
		}
	}

	return out
}
