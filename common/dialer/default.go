package dialer

import (
	"context"
	"net"
	"os"

	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/option"
	"github.com/sagernet/sing/common/control"
	M "github.com/sagernet/sing/common/metadata"
	N "github.com/sagernet/sing/common/network"

	"github.com/database64128/tfo-go/v2"
)

var _ N.Dialer = (*DefaultDialer)(nil)

// DefaultDialer opens raw TCP connections to a backend.
type DefaultDialer struct {
	dialer tfo.Dialer
}

func NewDefault(options option.BackendOptions) (*DefaultDialer, error) {
	var dialer net.Dialer
	if options.RoutingMark != 0 {
		if !C.IsLinux {
			return nil, failure.Newf(failure.Config, "routing_mark is only supported on Linux")
		}
		dialer.Control = control.Append(dialer.Control, control.RoutingMark(options.RoutingMark))
	}
	return &DefaultDialer{
		dialer: tfo.Dialer{Dialer: dialer, DisableTFO: !options.TCPFastOpen},
	}, nil
}

func (d *DefaultDialer) DialContext(ctx context.Context, network string, destination M.Socksaddr) (net.Conn, error) {
	if N.NetworkName(network) != N.NetworkTCP {
		return nil, os.ErrInvalid
	}
	if !destination.IsValid() {
		return nil, failure.Newf(failure.Config, "invalid address")
	}
	var (
		conn net.Conn
		err  error
	)
	if d.dialer.DisableTFO {
		conn, err = d.dialer.Dialer.DialContext(ctx, network, destination.String())
	} else {
		conn, err = d.dialer.DialContext(ctx, network, destination.String(), nil)
	}
	if err != nil {
		return nil, failure.New(failure.Connect, err, "dial ", destination)
	}
	return conn, nil
}

func (d *DefaultDialer) ListenPacket(ctx context.Context, destination M.Socksaddr) (net.PacketConn, error) {
	return nil, os.ErrInvalid
}
