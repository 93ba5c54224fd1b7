package domain

import (
	"sort"
	"sync"
	"time"
)

// NodeStore keeps the latest node views seen during the current session.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

func NewNodeStore() *NodeStore {
	return &NodeStore{nodes: make(map[string]Node)}
}

// Upsert merges a sparse node update into the stored view. Sections absent
// from the update keep their cached values; present sections merge key by
// key with the update winning.
func (s *NodeStore) Upsert(node Node) {
	if node.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[node.ID]
	if ok {
		if node.Num == 0 {
			node.Num = existing.Num
		}
		node.User = mergeSection(existing.User, node.User)
		node.Position = mergeSection(existing.Position, node.Position)
		node.DeviceMetrics = mergeSection(existing.DeviceMetrics, node.DeviceMetrics)
		if node.LastHeard < existing.LastHeard {
			node.LastHeard = existing.LastHeard
		}
		if node.SNR == nil {
			node.SNR = existing.SNR
		}
		if node.Channel == nil {
			node.Channel = existing.Channel
		}
		if node.ViaMQTT == nil {
			node.ViaMQTT = existing.ViaMQTT
		}
		if node.HopsAway == nil {
			node.HopsAway = existing.HopsAway
		}
		if node.HopLimit == nil {
			node.HopLimit = existing.HopLimit
		}
		if node.IsFavorite == nil {
			node.IsFavorite = existing.IsFavorite
		}
		if node.IsIgnored == nil {
			node.IsIgnored = existing.IsIgnored
		}
		if node.IsKeyManuallyVerified == nil {
			node.IsKeyManuallyVerified = existing.IsKeyManuallyVerified
		}
	}
	if node.UpdatedAt.IsZero() {
		node.UpdatedAt = time.Now()
	}
	s.nodes[node.ID] = node
}

// Snapshot returns a copy of all nodes ordered by most recently heard.
func (s *NodeStore) Snapshot() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastHeard != out[j].LastHeard {
			return out[i].LastHeard > out[j].LastHeard
		}

		return out[i].ID < out[j].ID
	})

	return out
}

func (s *NodeStore) Get(nodeID string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[nodeID]

	return node, ok
}

func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}

// Reset drops all cached nodes. Called when a new session starts.
func (s *NodeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]Node)
}

func mergeSection(existing, incoming map[string]any) map[string]any {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return incoming
	}

	merged := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}

	return merged
}
