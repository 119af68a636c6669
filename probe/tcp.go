package probe

import (
	"context"
	"fmt"
	"net"
)

// TCP is ready when Address accepts a connection.
type TCP struct {
	Address string
}

func (t *TCP) Probe(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return fmt.Errorf("tcp probe %s: %w", t.Address, err)
	}
	return conn.Close()
}
