package adapter

import (
	"context"
	"net"

	M "github.com/sagernet/sing/common/metadata"
)

// Outbound establishes connections to the configured backend.
type Outbound interface {
	Type() string
	Destination() M.Socksaddr
	Connect(ctx context.Context) (net.Conn, error)
}
