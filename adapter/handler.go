package adapter

import (
	"context"
	"net"
)

// ConnectionHandler takes ownership of conn and closes it before returning.
type ConnectionHandler interface {
	NewConnection(ctx context.Context, conn net.Conn, metadata InboundContext) error
}
