package listener

import (
	"context"
	"net"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/losfair/retls/adapter"
	"github.com/losfair/retls/log"
	"github.com/losfair/retls/option"
	"github.com/sagernet/sing/common"
	E "github.com/sagernet/sing/common/exceptions"

	"github.com/vishvananda/netns"
)

// ConnectionHandler receives every accepted raw connection on its own
// goroutine.
type ConnectionHandler interface {
	NewConnection(ctx context.Context, conn net.Conn, metadata adapter.InboundContext)
}

type Listener struct {
	ctx           context.Context
	logger        log.ContextLogger
	tag           string
	listenOptions option.ListenOptions
	connHandler   ConnectionHandler
	onError       func(err error)

	tcpListener net.Listener
	shutdown    atomic.Bool
	loopDone    chan struct{}
}

type Options struct {
	Context           context.Context
	Logger            log.ContextLogger
	Tag               string
	Listen            option.ListenOptions
	ConnectionHandler ConnectionHandler
	// OnError is called once if the accept loop stops on a fatal error.
	OnError func(err error)
}

func New(
	options Options,
) *Listener {
	return &Listener{
		ctx:           options.Context,
		logger:        options.Logger,
		tag:           options.Tag,
		listenOptions: options.Listen,
		connHandler:   options.ConnectionHandler,
		onError:       options.OnError,
		loopDone:      make(chan struct{}),
	}
}

func (l *Listener) Start() error {
	_, err := l.ListenTCP()
	if err != nil {
		return err
	}
	go l.loopTCPIn()
	return nil
}

func (l *Listener) Addr() net.Addr {
	if l.tcpListener == nil {
		return nil
	}
	return l.tcpListener.Addr()
}

func (l *Listener) Close() error {
	l.shutdown.Store(true)
	if l.tcpListener == nil {
		return nil
	}
	err := common.Close(l.tcpListener)
	<-l.loopDone
	return err
}

func ListenNetworkNamespace[T any](nameOrPath string, block func() (T, error)) (T, error) {
	if nameOrPath != "" {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		currentNs, err := netns.Get()
		if err != nil {
			return common.DefaultValue[T](), E.Cause(err, "get current netns")
		}
		defer netns.Set(currentNs)
		var targetNs netns.NsHandle
		if strings.HasPrefix(nameOrPath, "/") {
			targetNs, err = netns.GetFromPath(nameOrPath)
		} else {
			targetNs, err = netns.GetFromName(nameOrPath)
		}
		if err != nil {
			return common.DefaultValue[T](), E.Cause(err, "get netns ", nameOrPath)
		}
		defer targetNs.Close()
		err = netns.Set(targetNs)
		if err != nil {
			return common.DefaultValue[T](), E.Cause(err, "set netns to ", nameOrPath)
		}
	}
	return block()
}
