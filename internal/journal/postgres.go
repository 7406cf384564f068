package journal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// Postgres persists the event log. Expected table:
//
//	CREATE TABLE vault_events (
//	    id            uuid PRIMARY KEY,
//	    type          text NOT NULL,
//	    account       text NOT NULL DEFAULT '',
//	    asset         text NOT NULL DEFAULT '',
//	    amount        numeric NOT NULL DEFAULT 0,
//	    new_balance   numeric NOT NULL DEFAULT 0,
//	    usd_value     numeric NOT NULL DEFAULT 0,
//	    precision     smallint NOT NULL DEFAULT 0,
//	    price_source  text NOT NULL DEFAULT '',
//	    destination   text NOT NULL DEFAULT '',
//	    attempted_usd numeric NOT NULL DEFAULT 0,
//	    available_usd numeric NOT NULL DEFAULT 0,
//	    created_at    timestamptz NOT NULL
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Append(ctx context.Context, ev vault.Event) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO vault_events
		 (id, type, account, asset, amount, new_balance, usd_value,
		  precision, price_source, destination, attempted_usd, available_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ev.ID, string(ev.Type), ev.Account, ev.Asset, ev.Amount, ev.NewBalance, ev.USDValue,
		int16(ev.Precision), ev.PriceSource, ev.Destination, ev.AttemptedUSD, ev.AvailableUSD, ev.CreatedAt,
	)
	return err
}

// List returns a page of events in append order plus the total count.
func (p *Postgres) List(ctx context.Context, offset, limit int) ([]vault.Event, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM vault_events").Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, type, account, asset, amount, new_balance, usd_value,
		        precision, price_source, destination, attempted_usd, available_usd, created_at
		 FROM vault_events
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]vault.Event, 0, limit)
	for rows.Next() {
		var ev vault.Event
		var evType string
		var precision int16
		if err := rows.Scan(&ev.ID, &evType, &ev.Account, &ev.Asset, &ev.Amount, &ev.NewBalance,
			&ev.USDValue, &precision, &ev.PriceSource, &ev.Destination,
			&ev.AttemptedUSD, &ev.AvailableUSD, &ev.CreatedAt); err != nil {
			return nil, 0, err
		}
		ev.Type = vault.EventType(evType)
		ev.Precision = uint8(precision)
		events = append(events, ev)
	}
	return events, total, rows.Err()
}
