package semantics

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrInvalidNodeID = errors.New("semantics: invalid node id")

// Registry stores the latest snapshot per node id. Updates replace entries
// wholesale. Writes come from one ordered stream; the lock exists for readers
// on other goroutines (inspection).
type Registry struct {
	mu          sync.RWMutex
	nodes       map[int32]Node
	generations uint64
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[int32]Node)}
}

// Upsert replaces any entry for node.ID.
func (r *Registry) Upsert(node Node) error {
	if node.ID == BatchEndID {
		return fmt.Errorf("%w: %d", ErrInvalidNodeID, node.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.ID] = node
	return nil
}

func (r *Registry) Get(id int32) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[id]
	return node, ok
}

// CompleteGeneration records that one update batch finished and returns the
// number of completed generations.
func (r *Registry) CompleteGeneration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations++
	return r.generations
}

func (r *Registry) Generations() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generations
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// IDs returns node ids in ascending order.
func (r *Registry) IDs() []int32 {
	r.mu.RLock()
	ids := make([]int32, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Clear drops every entry. Used on bridge teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make(map[int32]Node)
	r.generations = 0
}
