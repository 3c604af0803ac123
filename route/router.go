package route

import (
	"context"
	"net"
	"time"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	"github.com/sagernet/sing/common"
	E "github.com/sagernet/sing/common/exceptions"
)

var _ adapter.ConnectionHandler = (*Router)(nil)

type Router struct {
	logger         log.ContextLogger
	outbound       adapter.Outbound
	connectTimeout time.Duration
	connections    *ConnectionManager
}

func NewRouter(logger log.ContextLogger, outbound adapter.Outbound, connectTimeout time.Duration) *Router {
	if connectTimeout <= 0 {
		connectTimeout = C.DefaultConnectTimeout
	}
	return &Router{
		logger:         logger,
		outbound:       outbound,
		connectTimeout: connectTimeout,
		connections:    NewConnectionManager(logger),
	}
}

func (r *Router) Start() error {
	return nil
}

func (r *Router) Close() error {
	return r.connections.Close()
}

func (r *Router) Connections() *ConnectionManager {
	return r.connections
}

// NewConnection connects conn, already decrypted, to the backend and relays
// until the session ends. conn is closed on every path.
func (r *Router) NewConnection(ctx context.Context, conn net.Conn, metadata adapter.InboundContext) error {
	ctx = adapter.WithContext(ctx, &metadata)
	remoteConn, err := r.establish(ctx)
	if err != nil {
		conn.Close()
		return E.Cause(err, "open outbound connection")
	}
	r.connections.NewConnection(ctx, conn, remoteConn)
	return nil
}

type establishResult struct {
	conn net.Conn
	err  error
}

// establish races the backend connector against the connect timeout. Once
// the deadline passes the attempt is cancelled and a connection that still
// completes is closed.
func (r *Router) establish(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithCancel(ctx)
	result := make(chan establishResult, 1)
	go func() {
		conn, err := r.outbound.Connect(ctx)
		result <- establishResult{conn, err}
	}()
	timer := time.NewTimer(r.connectTimeout)
	defer timer.Stop()
	var err error
	select {
	case established := <-result:
		cancel()
		return established.conn, established.err
	case <-timer.C:
		err = failure.Newf(failure.Timeout, "connect to ", r.outbound.Destination(), " timed out after ", r.connectTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	go func() {
		abandoned := <-result
		if abandoned.conn != nil {
			r.logger.TraceContext(ctx, "closing abandoned outbound connection")
			common.Close(abandoned.conn)
		}
	}()
	return nil, err
}
