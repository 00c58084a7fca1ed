package aggregate

import (
	"sync"

	"hoursync/internal/match"
)

// Registry is the process-wide node map keyed by workspace record id. It is
// injectable (owned by the Engine instance, not a global) so tests can run
// isolated engines. Entries live for the process lifetime; they are
// rehydrated from the remote source of truth after a restart.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// GetOrCreate returns the node for id, creating it on first reference.
// Lookups by id always return the cached node, never a fresh instance.
func (r *Registry) GetOrCreate(id string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id}
	r.nodes[id] = n
	return n
}

// Get returns the node for id if it exists.
func (r *Registry) Get(id string) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	return n, ok
}

// FindByName scans the registry for a node matching the task label and
// client name. Callers consult this before issuing a remote query, so the
// same record is never instantiated twice under different lookups.
func (r *Registry) FindByName(m *match.Matcher, label, clientName string) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		n.mu.Lock()
		name, project := n.name, n.project
		n.mu.Unlock()
		if m.MatchTaskName(name, label) && m.MatchClientName(project, clientName) {
			return n
		}
	}
	return nil
}

// Len reports the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}
