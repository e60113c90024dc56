package schedule

import "sync"

// PolicyHolder is the shared mutable slot for the active holiday policy.
// Config reloads, settings sync, and API updates swap the policy while
// the scheduler keeps reading a consistent snapshot.
type PolicyHolder struct {
	mu     sync.RWMutex
	policy *HolidayPolicy
}

// NewPolicyHolder creates a holder seeded with the given policy.
func NewPolicyHolder(p *HolidayPolicy) *PolicyHolder {
	return &PolicyHolder{policy: p}
}

// Current returns the active policy.
func (h *PolicyHolder) Current() *HolidayPolicy {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.policy
}

// Swap replaces the active policy.
func (h *PolicyHolder) Swap(p *HolidayPolicy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.policy = p
}
