package option

import (
	"strings"

	"github.com/losfair/retls/common/failure"
	C "github.com/losfair/retls/constant"
	"github.com/sagernet/sing/common/json/badoption"
	M "github.com/sagernet/sing/common/metadata"
)

type BackendOptions struct {
	Address        string             `json:"address"`
	ConnectTimeout badoption.Duration `json:"connect_timeout,omitempty"`
	TCPFastOpen    bool               `json:"tcp_fast_open,omitempty"`
	RoutingMark    uint32             `json:"routing_mark,omitempty"`
	TLS            OutboundTLSOptions `json:"tls,omitempty"`
}

type OutboundTLSOptions struct {
	ServerName  string                     `json:"server_name,omitempty"`
	ALPN        badoption.Listable[string] `json:"alpn,omitempty"`
	MinVersion  string                     `json:"min_version,omitempty"`
	MaxVersion  string                     `json:"max_version,omitempty"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
}

// BackendTarget is the resolved form of a backend address. Type is either
// C.BackendTypePlain or C.BackendTypeTLS; ServerName is only set for TLS.
type BackendTarget struct {
	Type        string
	Destination M.Socksaddr
	ServerName  string
}

func (t BackendTarget) String() string {
	if t.Type == C.BackendTypeTLS {
		return C.BackendSchemeTLS + t.Destination.String()
	}
	return t.Destination.String()
}

func ParseBackendTarget(address string, serverName string) (BackendTarget, error) {
	target := BackendTarget{Type: C.BackendTypePlain}
	if strings.HasPrefix(address, C.BackendSchemeTLS) {
		target.Type = C.BackendTypeTLS
		address = strings.TrimPrefix(address, C.BackendSchemeTLS)
	}
	if address == "" {
		return BackendTarget{}, failure.Newf(failure.Config, "missing backend address")
	}
	destination := M.ParseSocksaddr(address)
	if !destination.IsValid() || destination.Port == 0 {
		return BackendTarget{}, failure.Newf(failure.Config, "invalid backend address: ", address)
	}
	target.Destination = destination
	if target.Type == C.BackendTypeTLS {
		if serverName != "" {
			target.ServerName = serverName
		} else {
			target.ServerName = destination.AddrString()
		}
	}
	return target, nil
}
