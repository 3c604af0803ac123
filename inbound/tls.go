package inbound

import (
	"context"
	"net"
	"time"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/common/listener"
	"github.com/losfair/retls/common/tls"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	"github.com/losfair/retls/option"
	"github.com/sagernet/sing/common"
	E "github.com/sagernet/sing/common/exceptions"
)

var _ adapter.Inbound = (*TLS)(nil)

// TLS terminates client TLS sessions under the configured certificate and
// hands the decrypted stream to the router.
type TLS struct {
	ctx              context.Context
	logger           log.ContextLogger
	tag              string
	router           adapter.ConnectionHandler
	tlsConfig        tls.ServerConfig
	handshakeTimeout time.Duration
	listener         *listener.Listener
}

func NewTLS(ctx context.Context, router adapter.ConnectionHandler, logger log.ContextLogger, tag string, options option.InboundOptions, onError func(error)) (*TLS, error) {
	tlsConfig, err := tls.NewServer(options.TLS)
	if err != nil {
		return nil, err
	}
	inbound := &TLS{
		ctx:              ctx,
		logger:           logger,
		tag:              tag,
		router:           router,
		tlsConfig:        tlsConfig,
		handshakeTimeout: time.Duration(options.HandshakeTimeout),
	}
	if inbound.handshakeTimeout <= 0 {
		inbound.handshakeTimeout = C.TCPTimeout
	}
	inbound.listener = listener.New(listener.Options{
		Context:           ctx,
		Logger:            logger,
		Tag:               tag,
		Listen:            options.ListenOptions,
		ConnectionHandler: inbound,
		OnError:           onError,
	})
	return inbound, nil
}

func (h *TLS) Type() string {
	return C.TypeTLS
}

func (h *TLS) Tag() string {
	return h.tag
}

func (h *TLS) Start() error {
	return h.listener.Start()
}

func (h *TLS) Close() error {
	return h.listener.Close()
}

func (h *TLS) Addr() net.Addr {
	return h.listener.Addr()
}

func (h *TLS) NewConnection(ctx context.Context, conn net.Conn, metadata adapter.InboundContext) {
	handshakeCtx, cancel := context.WithTimeout(ctx, h.handshakeTimeout)
	tlsConn, err := tls.ServerHandshake(handshakeCtx, conn, h.tlsConfig)
	cancel()
	if err != nil {
		common.Close(conn)
		h.logger.ErrorContext(ctx, E.Cause(err, "process connection from ", metadata.Source))
		return
	}
	state := tlsConn.ConnectionState()
	metadata.ServerName = state.ServerName
	metadata.NegotiatedProtocol = state.NegotiatedProtocol
	if metadata.ServerName != "" {
		h.logger.DebugContext(ctx, "inbound TLS handshake finished for ", metadata.ServerName)
	}
	err = h.router.NewConnection(ctx, tlsConn, metadata)
	if err != nil {
		NewError(h.logger, ctx, E.Cause(err, "process connection from ", metadata.Source))
	}
}

func NewError(logger log.ContextLogger, ctx context.Context, err error) {
	if E.IsClosedOrCanceled(err) {
		logger.DebugContext(ctx, "connection closed: ", err)
		return
	}
	logger.ErrorContext(ctx, err)
}
