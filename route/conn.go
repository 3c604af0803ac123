package route

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/common/failure"
	"github.com/losfair/retls/log"
	"github.com/sagernet/sing/common"
	"github.com/sagernet/sing/common/bufio"
	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/x/list"

	"github.com/jpillora/sizestr"
)

// ConnectionManager relays established sessions and tracks them so they can
// be torn down on shutdown.
type ConnectionManager struct {
	logger      log.ContextLogger
	access      sync.Mutex
	closed      bool
	connections list.List[io.Closer]
}

func NewConnectionManager(logger log.ContextLogger) *ConnectionManager {
	return &ConnectionManager{
		logger: logger,
	}
}

func (m *ConnectionManager) Close() error {
	m.access.Lock()
	defer m.access.Unlock()
	m.closed = true
	for element := m.connections.Front(); element != nil; element = element.Next() {
		common.Close(element.Value)
	}
	m.connections.Init()
	return nil
}

func (m *ConnectionManager) Count() int {
	m.access.Lock()
	defer m.access.Unlock()
	return m.connections.Len()
}

// NewConnection pumps bytes between conn and remoteConn until either side
// finishes, then closes both. It blocks for the lifetime of the session.
func (m *ConnectionManager) NewConnection(ctx context.Context, conn net.Conn, remoteConn net.Conn) {
	m.access.Lock()
	if m.closed {
		m.access.Unlock()
		common.Close(conn, remoteConn)
		return
	}
	connElement := m.connections.PushBack(conn)
	remoteElement := m.connections.PushBack(remoteConn)
	m.access.Unlock()
	defer func() {
		m.access.Lock()
		defer m.access.Unlock()
		m.connections.Remove(connElement)
		m.connections.Remove(remoteElement)
	}()
	startedAt := time.Now()
	var (
		done       atomic.Bool
		uploaded   int64
		downloaded int64
	)
	uploadDone := make(chan struct{})
	go func() {
		defer close(uploadDone)
		uploaded = m.connectionCopy(ctx, conn, remoteConn, false, &done)
	}()
	downloaded = m.connectionCopy(ctx, remoteConn, conn, true, &done)
	<-uploadDone
	summary := []any{"sent ", sizestr.ToString(uploaded), ", received ", sizestr.ToString(downloaded), " in ", time.Since(startedAt).Round(time.Millisecond)}
	if metadata := adapter.ContextFrom(ctx); metadata != nil {
		summary = append([]any{"from ", metadata.Source, " "}, summary...)
		if metadata.ServerName != "" {
			summary = append(summary, " (sni ", metadata.ServerName, ")")
		}
	}
	m.logger.DebugContext(ctx, append([]any{"connection finished: "}, summary...)...)
}

func (m *ConnectionManager) connectionCopy(ctx context.Context, source net.Conn, destination net.Conn, direction bool, done *atomic.Bool) int64 {
	n, err := bufio.Copy(destination, source)
	// the first direction to finish tears down the session
	closedByPeer := done.Swap(true)
	common.Close(source, destination)
	name := "upload"
	if direction {
		name = "download"
	}
	if err == nil {
		m.logger.DebugContext(ctx, "connection ", name, " finished")
	} else if closedByPeer || E.IsClosedOrCanceled(err) {
		m.logger.TraceContext(ctx, "connection ", name, " closed")
	} else {
		m.logger.ErrorContext(ctx, "connection ", name, " closed: ", failure.New(failure.Relay, err))
	}
	return n
}
