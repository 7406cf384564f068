package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventDeposit         EventType = "deposit"
	EventWithdraw        EventType = "withdraw"
	EventAssetRegistered EventType = "asset_registered"
	EventAssetUpdated    EventType = "asset_updated"
	EventBankCapExceeded EventType = "bank_cap_exceeded"
	EventRescue          EventType = "rescue"
)

// Event is an immutable record of a vault outcome. Fields not relevant to a
// given type are left at their zero value.
type Event struct {
	ID           string          `json:"id"`
	Type         EventType       `json:"type"`
	Account      string          `json:"account,omitempty"`
	Asset        string          `json:"asset,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	USDValue     decimal.Decimal `json:"usd_value"`
	Precision    uint8           `json:"precision,omitempty"`
	PriceSource  string          `json:"price_source,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	AttemptedUSD decimal.Decimal `json:"attempted_usd"`
	AvailableUSD decimal.Decimal `json:"available_usd"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EventSink receives every emitted record. Implementations must treat events
// as append-only.
type EventSink interface {
	Append(ctx context.Context, ev Event) error
}

func newEvent(t EventType) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      t,
		CreatedAt: time.Now().UTC(),
	}
}

// describeSource renders an opaque price source handle for event records.
func describeSource(src PriceSource) string {
	if src == nil {
		return ""
	}
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
