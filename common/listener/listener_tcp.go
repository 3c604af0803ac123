package listener

import (
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	"github.com/sagernet/sing/common/control"
	E "github.com/sagernet/sing/common/exceptions"
	M "github.com/sagernet/sing/common/metadata"
	N "github.com/sagernet/sing/common/network"

	"github.com/database64128/tfo-go/v2"
	"github.com/jpillora/backoff"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// parseListenAddress accepts host:port. An empty host binds the unspecified
// IPv6 address, which listens on both families.
func parseListenAddress(listen string) (M.Socksaddr, error) {
	host, portString, err := net.SplitHostPort(listen)
	if err != nil {
		return M.Socksaddr{}, failure.New(failure.Config, err, "invalid listen address: ", listen)
	}
	port, err := strconv.ParseUint(portString, 10, 16)
	if err != nil {
		return M.Socksaddr{}, failure.New(failure.Config, err, "invalid listen port: ", listen)
	}
	if host == "" {
		return M.SocksaddrFrom(netip.IPv6Unspecified(), uint16(port)), nil
	}
	bindAddr := M.ParseSocksaddrHostPort(host, uint16(port))
	if !bindAddr.IsValid() {
		return M.Socksaddr{}, failure.Newf(failure.Config, "invalid listen address: ", listen)
	}
	return bindAddr, nil
}

func (l *Listener) ListenTCP() (net.Listener, error) {
	bindAddr, err := parseListenAddress(l.listenOptions.Listen)
	if err != nil {
		return nil, err
	}
	var listenConfig net.ListenConfig
	if l.listenOptions.ReuseAddr {
		listenConfig.Control = control.Append(listenConfig.Control, control.ReuseAddr())
	}
	if l.listenOptions.TCPKeepAlive >= 0 {
		keepIdle := time.Duration(l.listenOptions.TCPKeepAlive)
		if keepIdle == 0 {
			keepIdle = C.TCPKeepAliveInitial
		}
		keepInterval := time.Duration(l.listenOptions.TCPKeepAliveInterval)
		if keepInterval == 0 {
			keepInterval = C.TCPKeepAliveInterval
		}
		listenConfig.KeepAliveConfig = net.KeepAliveConfig{
			Enable:   true,
			Idle:     keepIdle,
			Interval: keepInterval,
		}
	} else {
		listenConfig.KeepAlive = -1
	}
	network := N.NetworkTCP
	if bindAddr.IsIP() {
		network = M.NetworkFromNetAddr(N.NetworkTCP, bindAddr.Addr)
	}
	tcpListener, err := ListenNetworkNamespace[net.Listener](l.listenOptions.NetNs, func() (net.Listener, error) {
		if l.listenOptions.TCPFastOpen {
			var tfoConfig tfo.ListenConfig
			tfoConfig.ListenConfig = listenConfig
			return tfoConfig.Listen(l.ctx, network, bindAddr.String())
		} else {
			return listenConfig.Listen(l.ctx, network, bindAddr.String())
		}
	})
	if err != nil {
		return nil, failure.New(failure.Bind, err, "listen on ", bindAddr)
	}
	l.logger.Info("tcp server started at ", tcpListener.Addr())
	l.tcpListener = tcpListener
	return tcpListener, nil
}

func (l *Listener) loopTCPIn() {
	defer close(l.loopDone)
	tcpListener := l.tcpListener
	retry := &backoff.Backoff{Min: minAcceptBackoff, Max: maxAcceptBackoff, Factor: 2}
	for {
		conn, err := tcpListener.Accept()
		if err != nil {
			if l.shutdown.Load() && E.IsClosed(err) {
				return
			}
			//nolint:staticcheck
			if netError, isNetError := err.(net.Error); isNetError && netError.Temporary() {
				delay := retry.Duration()
				l.logger.WarnContext(l.ctx, "accept: ", err, ", retrying in ", delay)
				time.Sleep(delay)
				continue
			}
			tcpListener.Close()
			err = failure.New(failure.Accept, err, "tcp listener closed")
			l.logger.Error(err)
			if l.onError != nil {
				l.onError(err)
			}
			return
		}
		retry.Reset()
		metadata := newInboundContext(l.tag, conn)
		ctx := log.ContextWithNewID(l.ctx)
		l.logger.InfoContext(ctx, "inbound connection from ", metadata.Source)
		go l.connHandler.NewConnection(ctx, conn, metadata)
	}
}
