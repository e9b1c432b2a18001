// internal/agent/plan_context.go
package agent

import (
	"strings"
	"sync"
)

// PlanContext caches plans by goal text, case-insensitively, and tracks the
// plan currently being executed.
type PlanContext struct {
	mu      sync.RWMutex
	plans   map[string]*Plan
	current *Plan
}

// NewPlanContext returns an empty cache.
func NewPlanContext() *PlanContext {
	return &PlanContext{plans: make(map[string]*Plan)}
}

func goalKey(goal string) string {
	return strings.ToLower(strings.TrimSpace(goal))
}

// Lookup returns the cached plan for goal.
func (c *PlanContext) Lookup(goal string) (*Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[goalKey(goal)]
	return p, ok
}

// Store caches plan under goal and makes it current.
func (c *PlanContext) Store(goal string, plan *Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[goalKey(goal)] = plan
	c.current = plan
}

// SetCurrent marks plan as the one being executed.
func (c *PlanContext) SetCurrent(plan *Plan) {
	c.mu.Lock()
	c.current = plan
	c.mu.Unlock()
}

// CurrentPlan returns the plan most recently stored or selected.
func (c *PlanContext) CurrentPlan() *Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Forget drops the cached plan for goal.
func (c *PlanContext) Forget(goal string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, goalKey(goal))
}
