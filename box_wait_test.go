package box

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/losfair/retls/common/failure"
	"github.com/losfair/retls/common/tls"
	"github.com/losfair/retls/option"

	"github.com/stretchr/testify/require"
)

func newStartedBox(t *testing.T) *Box {
	keyPem, certPem, err := tls.GenerateCertificate(nil, nil, nil, "proxy.example", time.Now().Add(time.Hour))
	require.NoError(t, err)
	instance, err := New(Options{
		Context: context.Background(),
		Options: option.Options{
			Log: &option.LogOptions{Disabled: true},
			Inbound: option.InboundOptions{
				ListenOptions: option.ListenOptions{Listen: "127.0.0.1:0"},
				TLS: option.InboundTLSOptions{
					Certificate: []string{string(certPem)},
					Key:         []string{string(keyPem)},
				},
			},
			Backend: option.BackendOptions{Address: "127.0.0.1:9"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, instance.Start())
	return instance
}

func TestWaitReturnsAcceptError(t *testing.T) {
	instance := newStartedBox(t)
	defer instance.Close()

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- instance.Wait()
	}()
	accept := failure.New(failure.Accept, errors.New("boom"), "tcp listener closed")
	instance.reportFatal(accept)
	// a second failure must not block the accept loop
	instance.reportFatal(failure.New(failure.Accept, net.ErrClosed))

	select {
	case err := <-waitDone:
		require.ErrorIs(t, err, failure.Accept)
		require.True(t, failure.IsFatal(err))
		require.Equal(t, accept, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestWaitAfterClose(t *testing.T) {
	instance := newStartedBox(t)
	require.NoError(t, instance.Close())
	require.NoError(t, instance.Wait())
}
