package tls

import (
	"context"
	"crypto/tls"
	"net"

	E "github.com/sagernet/sing/common/exceptions"
)

type (
	STDConfig       = tls.Config
	STDConn         = tls.Conn
	ConnectionState = tls.ConnectionState
	Certificate     = tls.Certificate
)

// Config opens the client side of a backend session.
type Config interface {
	Client(conn net.Conn) (Conn, error)
}

// ServerConfig terminates inbound sessions.
type ServerConfig interface {
	STDConfig() *STDConfig
	Server(conn net.Conn) (Conn, error)
}

type Conn interface {
	net.Conn
	HandshakeContext(ctx context.Context) error
	ConnectionState() ConnectionState
}

func ParseTLSVersion(version string) (uint16, error) {
	switch version {
	case "1.0":
		return tls.VersionTLS10, nil
	case "1.1":
		return tls.VersionTLS11, nil
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, E.New("unknown tls version: ", version)
	}
}

func parseCipherSuites(cipherSuites []string) ([]uint16, error) {
	var suiteIDs []uint16
find:
	for _, cipherSuite := range cipherSuites {
		for _, tlsCipherSuite := range tls.CipherSuites() {
			if cipherSuite == tlsCipherSuite.Name {
				suiteIDs = append(suiteIDs, tlsCipherSuite.ID)
				continue find
			}
		}
		return nil, E.New("unknown cipher_suite: ", cipherSuite)
	}
	return suiteIDs, nil
}
