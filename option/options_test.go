package option

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalOptions(t *testing.T) {
	t.Parallel()
	var options Options
	err := options.UnmarshalJSON([]byte(`{
  "log": {"level": "debug"},
  "inbound": {
    "listen": "127.0.0.1:8443",
    "tcp_fast_open": true,
    "tls": {"certificate_path": "cert.pem", "key_path": "key.pem"}
  },
  "backend": {
    "address": "tls:127.0.0.1:9443",
    "connect_timeout": "1500ms",
    "tls": {"server_name": "backend.example", "fingerprint": "chrome"}
  }
}`))
	require.NoError(t, err)
	require.NoError(t, options.Check())
	require.Equal(t, "debug", options.Log.Level)
	require.Equal(t, "127.0.0.1:8443", options.Inbound.Listen)
	require.True(t, options.Inbound.TCPFastOpen)
	require.Equal(t, 1500*time.Millisecond, time.Duration(options.Backend.ConnectTimeout))
	require.Equal(t, "backend.example", options.Backend.TLS.ServerName)
}

func TestUnmarshalOptionsUnknownField(t *testing.T) {
	t.Parallel()
	var options Options
	require.Error(t, options.UnmarshalJSON([]byte(`{"inbound": {"listen": ":443", "upstream": "x"}}`)))
}

func TestCheckOptions(t *testing.T) {
	t.Parallel()
	options := Options{
		Inbound: InboundOptions{
			ListenOptions: ListenOptions{Listen: ":8443"},
			TLS:           InboundTLSOptions{CertificatePath: "cert.pem"},
		},
		Backend: BackendOptions{Address: "127.0.0.1:80"},
	}
	require.ErrorContains(t, options.Check(), "missing key")
	options.Inbound.TLS.KeyPath = "key.pem"
	require.NoError(t, options.Check())
	options.Backend.Address = ""
	require.ErrorContains(t, options.Check(), "missing backend address")
}
