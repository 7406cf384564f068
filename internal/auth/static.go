package auth

import "sync"

// Static maps caller identifiers (API keys) to granted capabilities.
// Grants are set up at boot; lookups may run concurrently.
type Static struct {
	mu     sync.RWMutex
	grants map[string]map[string]bool
}

func NewStatic() *Static {
	return &Static{grants: make(map[string]map[string]bool)}
}

// Grant gives caller the listed capabilities.
func (s *Static) Grant(caller string, capabilities ...string) {
	if caller == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[caller]
	if !ok {
		set = make(map[string]bool)
		s.grants[caller] = set
	}
	for _, c := range capabilities {
		set[c] = true
	}
}

func (s *Static) IsAllowed(caller, capability string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[caller][capability]
}
