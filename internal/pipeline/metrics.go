package pipeline

import "sync"

// NodeMetrics are the per-node execution counters for one collector.
type NodeMetrics struct {
	Executions int `json:"executions"`
	Successes  int `json:"successes"`
	Failures   int `json:"failures"`
}

// Collector accumulates per-node execution counts. Run creates a fresh one
// per invocation and returns its snapshot on the final state, so concurrent
// runs on one pipeline cannot leak counts into each other. The mutex only
// covers the case of a caller snapshotting while a run is in flight.
type Collector struct {
	mu    sync.Mutex
	nodes map[string]*NodeMetrics
}

// NewCollector creates an empty metrics collector.
func NewCollector() *Collector {
	return &Collector{nodes: map[string]*NodeMetrics{}}
}

func (c *Collector) record(node string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.nodes[node]
	if !ok {
		m = &NodeMetrics{}
		c.nodes[node] = m
	}
	m.Executions++
	if failed {
		m.Failures++
	} else {
		m.Successes++
	}
}

// Snapshot returns a copy of the current counters keyed by node name.
func (c *Collector) Snapshot() map[string]NodeMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]NodeMetrics, len(c.nodes))
	for name, m := range c.nodes {
		out[name] = *m
	}
	return out
}
