package tls

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"net"
	"os"
	"strings"

	"github.com/losfair/retls/common/failure"
	"github.com/losfair/retls/option"
	E "github.com/sagernet/sing/common/exceptions"
)

var _ ServerConfig = (*STDServerConfig)(nil)

type STDServerConfig struct {
	config *tls.Config
}

func (c *STDServerConfig) STDConfig() *STDConfig {
	return c.config
}

func (c *STDServerConfig) Server(conn net.Conn) (Conn, error) {
	return tls.Server(conn, c.config), nil
}

// NewServer loads the certificate chain and private key and builds the
// configuration shared by every inbound handshake.
func NewServer(options option.InboundTLSOptions) (ServerConfig, error) {
	certificate, err := loadMaterial(options.Certificate, options.CertificatePath)
	if err != nil {
		return nil, failure.New(failure.Config, err, "read certificate")
	}
	if certificate == nil {
		return nil, failure.Newf(failure.Config, "missing certificate")
	}
	key, err := loadMaterial(options.Key, options.KeyPath)
	if err != nil {
		return nil, failure.New(failure.Config, err, "read key")
	}
	if key == nil {
		return nil, failure.Newf(failure.Config, "missing key")
	}
	keyPair, err := LoadKeyPair(certificate, key)
	if err != nil {
		return nil, failure.New(failure.Config, err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{keyPair},
		ClientAuth:   tls.NoClientCert,
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
	if options.CipherSuites != nil {
		tlsConfig.CipherSuites, err = parseCipherSuites(options.CipherSuites)
		if err != nil {
			return nil, failure.New(failure.Config, err)
		}
	}
	return &STDServerConfig{config: tlsConfig}, nil
}

func loadMaterial(inline []string, path string) ([]byte, error) {
	if len(inline) > 0 {
		return []byte(strings.Join(inline, "\n")), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// LoadKeyPair builds a certificate from every CERTIFICATE block of
// certificatePEM and the first private key block of keyPEM. The key may be
// PKCS#8, PKCS#1 or SEC 1 encoded and must match the leaf certificate.
func LoadKeyPair(certificatePEM []byte, keyPEM []byte) (tls.Certificate, error) {
	var chain []byte
	for rest := certificatePEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			chain = append(chain, pem.EncodeToMemory(block)...)
		}
	}
	if len(chain) == 0 {
		return tls.Certificate{}, E.New("invalid certificate: no PEM certificate found")
	}
	var keyBlock *pem.Block
	for rest := keyPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "PRIVATE KEY" || strings.HasSuffix(block.Type, " PRIVATE KEY") {
			keyBlock = block
			break
		}
	}
	if keyBlock == nil {
		return tls.Certificate{}, E.New("invalid key: no PEM private key found")
	}
	keyPair, err := tls.X509KeyPair(chain, pem.EncodeToMemory(keyBlock))
	if err != nil {
		return tls.Certificate{}, E.Cause(err, "parse x509 key pair")
	}
	return keyPair, nil
}

// ServerHandshake terminates TLS on conn. The caller owns conn and must
// close it when an error is returned.
func ServerHandshake(ctx context.Context, conn net.Conn, config ServerConfig) (Conn, error) {
	tlsConn, err := config.Server(conn)
	if err != nil {
		return nil, failure.New(failure.Handshake, err)
	}
	err = tlsConn.HandshakeContext(ctx)
	if err != nil {
		return nil, failure.New(failure.Handshake, err, "TLS handshake")
	}
	return tlsConn, nil
}
