package aggregate

import "sync"

// Node is the in-process representation of a task record. At most one Node
// exists per record id (enforced by the Registry); concurrent update chains
// read whatever state a node currently holds rather than waiting for an
// in-progress update to finish.
type Node struct {
	ID string

	mu              sync.Mutex
	name            string
	project         string
	localHours      float64
	aggregatedHours float64
	parents         []string
	children        []string
	updating        bool
}

// Name returns the node's last known display name.
func (n *Node) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

// Project returns the node's last known project/client name.
func (n *Node) Project() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.project
}

// LocalHours returns the node's own measured hours.
func (n *Node) LocalHours() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.localHours
}

// AggregatedHours returns local hours plus the recursive sum of children,
// as of the node's last completed update.
func (n *Node) AggregatedHours() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.aggregatedHours
}

// beginUpdate marks the node in-progress. Returns false when an update is
// already running, which is how a cycle back to an ancestor terminates.
func (n *Node) beginUpdate() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.updating {
		return false
	}
	n.updating = true
	return true
}

func (n *Node) endUpdate() {
	n.mu.Lock()
	n.updating = false
	n.mu.Unlock()
}
