// Package store implements the Entity Store (§4.H): bun-backed Postgres
// repositories for Venue, Concert, Zone, and Ticket, plus the single
// transaction the Batch Persister (§4.F) uses to reserve a batch of
// tickets. Connection setup follows the Evently example's
// bun.NewDB(pgdriver-backed *sql.DB, pgdialect.New()) wiring rather than
// liverty's raw pgxpool, since pgdriver/pgdialect are what this module's
// go.mod actually declares.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pingTimeout = 5 * time.Second

// Connect opens a bun.DB over dsn using pgdriver, verifies connectivity,
// and registers the four entity models.
func Connect(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	db.RegisterModel((*venueModel)(nil), (*concertModel)(nil), (*zoneModel)(nil), (*ticketModel)(nil))
	return db, nil
}
