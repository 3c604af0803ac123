package tls

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/losfair/retls/common/failure"
	"github.com/losfair/retls/option"
	E "github.com/sagernet/sing/common/exceptions"

	utls "github.com/metacubex/utls"
)

var _ Config = (*UTLSClientConfig)(nil)

// UTLSClientConfig shapes the outbound ClientHello after a browser
// fingerprint. It applies the same CertificateVerifier as STDClientConfig.
type UTLSClientConfig struct {
	config *utls.Config
	id     utls.ClientHelloID
}

func (c *UTLSClientConfig) Client(conn net.Conn) (Conn, error) {
	return &utlsALPNWrapper{utlsConnWrapper{utls.UClient(conn, c.config.Clone(), c.id)}, c.config.NextProtos}, nil
}

type utlsConnWrapper struct {
	*utls.UConn
}

func (c *utlsConnWrapper) ConnectionState() tls.ConnectionState {
	state := c.Conn.ConnectionState()
	return tls.ConnectionState{
		Version:                     state.Version,
		HandshakeComplete:           state.HandshakeComplete,
		DidResume:                   state.DidResume,
		CipherSuite:                 state.CipherSuite,
		NegotiatedProtocol:          state.NegotiatedProtocol,
		ServerName:                  state.ServerName,
		PeerCertificates:            state.PeerCertificates,
		VerifiedChains:              state.VerifiedChains,
		SignedCertificateTimestamps: state.SignedCertificateTimestamps,
		OCSPResponse:                state.OCSPResponse,
	}
}

type utlsALPNWrapper struct {
	utlsConnWrapper
	nextProtocols []string
}

// HandshakeContext rewrites the ALPN extension of the browser preset so
// the ClientHello offers exactly the configured protocols. With none
// configured the extension is removed, since presets advertise h2 and
// http/1.1 and the relayed stream must not be bound to either.
func (c *utlsALPNWrapper) HandshakeContext(ctx context.Context) error {
	err := c.BuildHandshakeState()
	if err != nil {
		return err
	}
	extensions := c.Extensions[:0]
	var rewritten bool
	for _, extension := range c.Extensions {
		alpnExtension, isALPN := extension.(*utls.ALPNExtension)
		if !isALPN {
			extensions = append(extensions, extension)
			continue
		}
		rewritten = true
		if len(c.nextProtocols) > 0 {
			alpnExtension.AlpnProtocols = c.nextProtocols
			extensions = append(extensions, alpnExtension)
		}
	}
	c.Extensions = extensions
	if rewritten {
		if len(c.nextProtocols) == 0 {
			c.HandshakeState.Hello.AlpnProtocols = nil
		}
		err = c.BuildHandshakeState()
		if err != nil {
			return err
		}
	}
	return c.UConn.HandshakeContext(ctx)
}

func NewUTLSClient(serverName string, options option.OutboundTLSOptions, verifier CertificateVerifier) (Config, error) {
	id, err := uTLSClientHelloID(options.Fingerprint)
	if err != nil {
		return nil, failure.New(failure.Config, err)
	}
	tlsConfig := &utls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true,
		VerifyConnection: func(state utls.ConnectionState) error {
			return verifier.VerifyCertificate(state.ServerName, state.PeerCertificates)
		},
	}
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
	return &UTLSClientConfig{tlsConfig, id}, nil
}

func uTLSClientHelloID(name string) (utls.ClientHelloID, error) {
	switch name {
	case "chrome":
		return utls.HelloChrome_Auto, nil
	case "firefox":
		return utls.HelloFirefox_Auto, nil
	case "edge":
		return utls.HelloEdge_Auto, nil
	case "safari":
		return utls.HelloSafari_Auto, nil
	case "ios":
		return utls.HelloIOS_Auto, nil
	case "android":
		return utls.HelloAndroid_11_OkHttp, nil
	case "randomized":
		return utls.HelloRandomized, nil
	default:
		return utls.ClientHelloID{}, E.New("unknown uTLS fingerprint: ", name)
	}
}
