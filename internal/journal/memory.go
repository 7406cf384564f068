package journal

import (
	"context"
	"sync"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// Memory keeps the event log in process. Used in tests and when no database
// is configured.
type Memory struct {
	mu     sync.RWMutex
	events []vault.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ctx context.Context, ev vault.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// List returns a page of events in append order plus the total count.
func (m *Memory) List(ctx context.Context, offset, limit int) ([]vault.Event, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.events)
	if offset < 0 || offset >= total {
		return []vault.Event{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	page := make([]vault.Event, end-offset)
	copy(page, m.events[offset:end])
	return page, total, nil
}

// All returns a copy of every recorded event.
func (m *Memory) All() []vault.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vault.Event, len(m.events))
	copy(out, m.events)
	return out
}
