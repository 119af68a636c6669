package probe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgConn is the subset of *pgx.Conn the Postgres probe uses.
type PgConn interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// Postgres is ready when a fresh connection to DSN succeeds and pings. When
// Query is set it must also execute without error.
type Postgres struct {
	DSN   string
	Query string

	// Connect defaults to pgx.Connect.
	Connect func(ctx context.Context, dsn string) (PgConn, error)
}

func pgxConnect(ctx context.Context, dsn string) (PgConn, error) {
	return pgx.Connect(ctx, dsn)
}

func (p *Postgres) Probe(ctx context.Context) error {
	connect := p.Connect
	if connect == nil {
		connect = pgxConnect
	}

	conn, err := connect(ctx, p.DSN)
	if err != nil {
		return fmt.Errorf("postgres probe: connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("postgres probe: ping: %w", err)
	}
	if p.Query != "" {
		if _, err := conn.Exec(ctx, p.Query); err != nil {
			return fmt.Errorf("%w: postgres query failed: %v", ErrNotReady, err)
		}
	}
	return nil
}
