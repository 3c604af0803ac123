package listener

import (
	"net"
	"time"

	"github.com/losfair/retls/adapter"
	M "github.com/sagernet/sing/common/metadata"
)

func newInboundContext(tag string, conn net.Conn) adapter.InboundContext {
	return adapter.InboundContext{
		Inbound:     tag,
		Source:      M.SocksaddrFromNet(conn.RemoteAddr()).Unwrap(),
		Destination: M.SocksaddrFromNet(conn.LocalAddr()).Unwrap(),
		AcceptedAt:  time.Now(),
	}
}
