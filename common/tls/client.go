package tls

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/losfair/retls/common/failure"
	"github.com/losfair/retls/option"
)

var _ Config = (*STDClientConfig)(nil)

type STDClientConfig struct {
	config *tls.Config
}

func (c *STDClientConfig) Client(conn net.Conn) (Conn, error) {
	return tls.Client(conn, c.config), nil
}

// NewClient builds the configuration used for every handshake with an
// encrypted backend. Certificates are checked by verifier alone.
func NewClient(serverName string, options option.OutboundTLSOptions, verifier CertificateVerifier) (Config, error) {
	err := ValidateServerName(serverName)
	if err != nil {
		return nil, failure.New(failure.Config, err)
	}
	if options.Fingerprint != "" {
		return NewUTLSClient(serverName, options, verifier)
	}
	tlsConfig := &tls.Config{
		ServerName: serverName,
	}
	applyVerifier(tlsConfig, verifier)
	if len(options.ALPN) > 0 {
		tlsConfig.NextProtos = options.ALPN
	}
	if options.MinVersion != "" {
		minVersion, err := ParseTLSVersion(options.MinVersion)
		if err != nil {
			return nil, failure.New(failure.Config, err, "parse min_version")
		}
		tlsConfig.MinVersion = minVersion
	}
	if options.MaxVersion != "" {
		maxVersion, err := ParseTLSVersion(options.MaxVersion)
		if err != nil {
			return nil, failure.New(failure.Config, err, "parse max_version")
		}
		tlsConfig.MaxVersion = maxVersion
	}
	return &STDClientConfig{config: tlsConfig}, nil
}

// ClientHandshake performs the outbound handshake on conn. The caller owns
// conn and must close it when an error is returned.
func ClientHandshake(ctx context.Context, conn net.Conn, config Config) (Conn, error) {
	tlsConn, err := config.Client(conn)
	if err != nil {
		return nil, failure.New(failure.Handshake, err)
	}
	err = tlsConn.HandshakeContext(ctx)
	if err != nil {
		return nil, failure.New(failure.Handshake, err, "TLS handshake")
	}
	return tlsConn, nil
}
