package dialer

import (
	"context"
	"net"
	"os"

	"github.com/losfair/retls/common/tls"
	M "github.com/sagernet/sing/common/metadata"
	N "github.com/sagernet/sing/common/network"
)

var _ N.Dialer = (*TLSDialer)(nil)

// TLSDialer wraps every connection of the underlying dialer in a client
// TLS session.
type TLSDialer struct {
	dialer N.Dialer
	config tls.Config
}

func NewTLS(dialer N.Dialer, config tls.Config) *TLSDialer {
	return &TLSDialer{dialer, config}
}

func (d *TLSDialer) DialContext(ctx context.Context, network string, destination M.Socksaddr) (net.Conn, error) {
	if N.NetworkName(network) != N.NetworkTCP {
		return nil, os.ErrInvalid
	}
	conn, err := d.dialer.DialContext(ctx, network, destination)
	if err != nil {
		return nil, err
	}
	tlsConn, err := tls.ClientHandshake(ctx, conn, d.config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (d *TLSDialer) ListenPacket(ctx context.Context, destination M.Socksaddr) (net.PacketConn, error) {
	return nil, os.ErrInvalid
}
