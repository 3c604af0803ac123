package box

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/inbound"
	"github.com/losfair/retls/log"
	"github.com/losfair/retls/option"
	"github.com/losfair/retls/outbound"
	"github.com/losfair/retls/route"
	"github.com/sagernet/sing/common"
	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
)

type Box struct {
	createdAt  time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	logFactory log.Factory
	logger     log.ContextLogger
	outbound   *outbound.Backend
	router     *route.Router
	inbound    *inbound.TLS
	fatal      chan error
	done       chan struct{}
}

type Options struct {
	option.Options
	Context   context.Context
	LogWriter io.Writer
}

// New validates options and loads all key material. Nothing is bound until
// Start.
func New(options Options) (*Box, error) {
	createdAt := time.Now()
	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}
	err := options.Check()
	if err != nil {
		return nil, failure.New(failure.Config, err)
	}
	logFactory, err := log.New(log.Options{
		Options:       common.PtrValueOrDefault(options.Log),
		DefaultWriter: options.LogWriter,
		BaseTime:      createdAt,
	})
	if err != nil {
		return nil, failure.New(failure.Config, err, "create log factory")
	}
	ctx, cancel := context.WithCancel(ctx)
	box := &Box{
		createdAt:  createdAt,
		ctx:        ctx,
		cancel:     cancel,
		logFactory: logFactory,
		logger:     logFactory.Logger(),
		fatal:      make(chan error, 1),
		done:       make(chan struct{}),
	}
	backend, err := outbound.NewBackend(logFactory.NewLogger("outbound/backend"), options.Backend)
	if err != nil {
		box.abort()
		return nil, E.Cause(err, "initialize backend")
	}
	router := route.NewRouter(logFactory.NewLogger("router"), backend, time.Duration(options.Backend.ConnectTimeout))
	tlsInbound, err := inbound.NewTLS(ctx, router, logFactory.NewLogger(F.ToString("inbound/", C.TypeTLS)), C.TypeTLS, options.Inbound, box.reportFatal)
	if err != nil {
		box.abort()
		return nil, E.Cause(err, "initialize inbound")
	}
	box.outbound = backend
	box.router = router
	box.inbound = tlsInbound
	return box, nil
}

func (s *Box) abort() {
	s.cancel()
	s.logFactory.Close()
}

func (s *Box) reportFatal(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

func (s *Box) Start() error {
	err := s.start()
	if err != nil {
		s.Close()
		return err
	}
	s.logger.Info("retls started (", F.Seconds(time.Since(s.createdAt).Seconds()), "s)")
	return nil
}

func (s *Box) start() error {
	err := s.router.Start()
	if err != nil {
		return E.Cause(err, "start router")
	}
	s.logger.Info("backend: ", s.outbound.Target())
	err = s.inbound.Start()
	if err != nil {
		return E.Cause(err, "start inbound")
	}
	return nil
}

// Wait blocks until the accept loop fails or the box is closed. It returns
// nil after Close.
func (s *Box) Wait() error {
	select {
	case err := <-s.fatal:
		return err
	case <-s.done:
		return nil
	}
}

func (s *Box) Close() error {
	select {
	case <-s.done:
		return os.ErrClosed
	default:
		close(s.done)
	}
	s.cancel()
	err := common.Close(s.inbound, s.router)
	err = E.Append(err, s.logFactory.Close(), func(err error) error {
		return E.Cause(err, "close logger")
	})
	return err
}

func (s *Box) Addr() net.Addr {
	return s.inbound.Addr()
}

func (s *Box) Backend() *outbound.Backend {
	return s.outbound
}
