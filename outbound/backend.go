package outbound

import (
	"context"
	"net"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/common/dialer"
	"github.com/losfair/retls/common/tls"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	"github.com/losfair/retls/option"
	M "github.com/sagernet/sing/common/metadata"
	N "github.com/sagernet/sing/common/network"
)

var _ adapter.Outbound = (*Backend)(nil)

// Backend connects to the single configured backend, either in plaintext or
// through a client TLS session whose certificate is never verified.
type Backend struct {
	logger log.ContextLogger
	target option.BackendTarget
	dialer N.Dialer
}

func NewBackend(logger log.ContextLogger, options option.BackendOptions) (*Backend, error) {
	target, err := option.ParseBackendTarget(options.Address, options.TLS.ServerName)
	if err != nil {
		return nil, err
	}
	outboundDialer, err := dialer.NewDefault(options)
	if err != nil {
		return nil, err
	}
	backend := &Backend{
		logger: logger,
		target: target,
	}
	switch target.Type {
	case C.BackendTypeTLS:
		tlsConfig, err := tls.NewClient(target.ServerName, options.TLS, tls.AcceptAnyCertificate{})
		if err != nil {
			return nil, err
		}
		backend.dialer = dialer.NewTLS(outboundDialer, tlsConfig)
	default:
		backend.dialer = outboundDialer
	}
	return backend, nil
}

func (b *Backend) Type() string {
	return b.target.Type
}

func (b *Backend) Destination() M.Socksaddr {
	return b.target.Destination
}

func (b *Backend) Target() option.BackendTarget {
	return b.target
}

func (b *Backend) Connect(ctx context.Context) (net.Conn, error) {
	b.logger.DebugContext(ctx, "outbound connection to ", b.target)
	return b.dialer.DialContext(ctx, N.NetworkTCP, b.target.Destination)
}
