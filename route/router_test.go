package route

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rand"
	"io"
	"net"
	"testing"
	"time"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	M "github.com/sagernet/sing/common/metadata"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubOutbound struct {
	connect func(ctx context.Context) (net.Conn, error)
}

func (o *stubOutbound) Type() string {
	return C.BackendTypePlain
}

func (o *stubOutbound) Destination() M.Socksaddr {
	return M.ParseSocksaddr("127.0.0.1:9")
}

func (o *stubOutbound) Connect(ctx context.Context) (net.Conn, error) {
	return o.connect(ctx)
}

func echo(conn net.Conn) {
	defer conn.Close()
	io.Copy(conn, conn)
}

func newRouter(connect func(ctx context.Context) (net.Conn, error), timeout time.Duration) *Router {
	return NewRouter(log.NewNOPFactory().Logger(), &stubOutbound{connect}, timeout)
}

func serve(router *Router) (net.Conn, <-chan error) {
	clientConn, serverConn := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- router.NewConnection(context.Background(), serverConn, adapter.InboundContext{})
	}()
	return clientConn, done
}

func TestRelayTransparent(t *testing.T) {
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		conn, backendConn := net.Pipe()
		go echo(backendConn)
		return conn, nil
	}, time.Second)
	clientConn, done := serve(router)

	payload := make([]byte, 1024*1024)
	_, err := rand.Read(payload)
	require.NoError(t, err)
	writeDone := make(chan error, 1)
	go func() {
		_, err := clientConn.Write(payload)
		writeDone <- err
	}()
	received := make([]byte, len(payload))
	_, err = io.ReadFull(clientConn, received)
	require.NoError(t, err)
	require.NoError(t, <-writeDone)
	require.Equal(t, md5.Sum(payload), md5.Sum(received))

	require.Equal(t, 2, router.Connections().Count())
	require.NoError(t, clientConn.Close())
	require.NoError(t, <-done)
	require.Zero(t, router.Connections().Count())
}

func TestRelayBackendClose(t *testing.T) {
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		conn, backendConn := net.Pipe()
		go func() {
			backendConn.Write([]byte("bye"))
			backendConn.Close()
		}()
		return conn, nil
	}, time.Second)
	clientConn, done := serve(router)
	defer clientConn.Close()
	message, err := io.ReadAll(clientConn)
	require.NoError(t, err)
	require.Equal(t, "bye", string(message))
	require.NoError(t, <-done)
}

func TestEstablishTimeout(t *testing.T) {
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 100*time.Millisecond)
	clientConn, done := serve(router)
	defer clientConn.Close()
	startedAt := time.Now()
	err := <-done
	require.ErrorIs(t, err, failure.Timeout)
	require.Less(t, time.Since(startedAt), 5*time.Second)
	_, err = clientConn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestEstablishLateConnectionClosed(t *testing.T) {
	backendClosed := make(chan struct{})
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		// ignores cancellation
		time.Sleep(300 * time.Millisecond)
		conn, backendConn := net.Pipe()
		go func() {
			defer close(backendClosed)
			io.Copy(io.Discard, backendConn)
		}()
		return conn, nil
	}, 50*time.Millisecond)
	clientConn, done := serve(router)
	defer clientConn.Close()
	require.ErrorIs(t, <-done, failure.Timeout)
	select {
	case <-backendClosed:
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned connection was not closed")
	}
}

func TestEstablishConnectError(t *testing.T) {
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		return nil, failure.Newf(failure.Connect, "connection refused")
	}, time.Second)
	clientConn, done := serve(router)
	defer clientConn.Close()
	err := <-done
	require.ErrorIs(t, err, failure.Connect)
	require.NotErrorIs(t, err, failure.Timeout)
}

func TestConnectionManagerClose(t *testing.T) {
	router := newRouter(func(ctx context.Context) (net.Conn, error) {
		conn, backendConn := net.Pipe()
		go echo(backendConn)
		return conn, nil
	}, time.Second)
	clientConn, done := serve(router)
	defer clientConn.Close()
	_, err := clientConn.Write([]byte("ping"))
	require.NoError(t, err)
	_, err = io.ReadFull(clientConn, make([]byte, 4))
	require.NoError(t, err)
	require.NoError(t, router.Close())
	require.NoError(t, <-done)

	// sessions arriving after shutdown are dropped
	clientConn, done = serve(router)
	defer clientConn.Close()
	require.NoError(t, <-done)
	_, err = clientConn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestRelaySummaryLog(t *testing.T) {
	var buffer bytes.Buffer
	factory := log.NewFactory(log.Formatter{DisableColors: true, DisableTimestamp: true}, &buffer)
	factory.SetLevel(log.LevelDebug)
	router := NewRouter(factory.NewLogger("router"), &stubOutbound{func(ctx context.Context) (net.Conn, error) {
		conn, backendConn := net.Pipe()
		go echo(backendConn)
		return conn, nil
	}}, time.Second)
	clientConn, serverConn := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- router.NewConnection(context.Background(), serverConn, adapter.InboundContext{
			Inbound:    "tls",
			Source:     M.ParseSocksaddr("192.0.2.1:1234"),
			AcceptedAt: time.Now(),
			ServerName: "proxy.example",
		})
	}()
	_, err := clientConn.Write([]byte("ping"))
	require.NoError(t, err)
	_, err = io.ReadFull(clientConn, make([]byte, 4))
	require.NoError(t, err)
	require.NoError(t, clientConn.Close())
	require.NoError(t, <-done)

	summary := buffer.String()
	require.Contains(t, summary, "connection finished: from 192.0.2.1:1234 sent 4B, received 4B")
	require.Contains(t, summary, "(sni proxy.example)")
}
