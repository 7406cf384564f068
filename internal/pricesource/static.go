package pricesource

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// Static is an in-process price source whose quote is pushed by an operator
// instead of fetched. It stands in for an external oracle.
type Static struct {
	name string

	mu       sync.RWMutex
	price    decimal.Decimal
	decimals uint8
	ok       bool
}

// NewStatic builds a source named name quoting price scaled by 10^decimals.
func NewStatic(name string, price decimal.Decimal, decimals uint8) *Static {
	return &Static{
		name:     name,
		price:    price,
		decimals: decimals,
		ok:       true,
	}
}

// Set replaces the current quote and marks it usable.
func (s *Static) Set(price decimal.Decimal, decimals uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = price
	s.decimals = decimals
	s.ok = true
}

// MarkInvalid flags the quote as unusable until the next Set.
func (s *Static) MarkInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ok = false
}

func (s *Static) LatestQuote(ctx context.Context) vault.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vault.Quote{Price: s.price, Decimals: s.decimals, Ok: s.ok}
}

func (s *Static) String() string {
	return s.name
}
