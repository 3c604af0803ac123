package tls

import (
	"net/netip"

	E "github.com/sagernet/sing/common/exceptions"

	"golang.org/x/net/idna"
)

var serverNameProfile = idna.New(
	idna.MapForLookup(),
	idna.VerifyDNSLength(true),
	idna.BidiRule(),
)

// ValidateServerName accepts IP literals and host names usable as a TLS
// server name indication.
func ValidateServerName(serverName string) error {
	if serverName == "" {
		return E.New("empty server name")
	}
	if _, err := netip.ParseAddr(serverName); err == nil {
		return nil
	}
	_, err := serverNameProfile.ToASCII(serverName)
	if err != nil {
		return E.Cause(err, "invalid server name: ", serverName)
	}
	return nil
}
