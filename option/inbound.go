package option

import "github.com/sagernet/sing/common/json/badoption"

type InboundOptions struct {
	ListenOptions
	TLS InboundTLSOptions `json:"tls"`
}

type ListenOptions struct {
	Listen               string             `json:"listen"`
	TCPFastOpen          bool               `json:"tcp_fast_open,omitempty"`
	ReuseAddr            bool               `json:"reuse_addr,omitempty"`
	TCPKeepAlive         badoption.Duration `json:"tcp_keep_alive,omitempty"`
	TCPKeepAliveInterval badoption.Duration `json:"tcp_keep_alive_interval,omitempty"`
	NetNs                string             `json:"netns,omitempty"`
	HandshakeTimeout     badoption.Duration `json:"handshake_timeout,omitempty"`
}

type InboundTLSOptions struct {
	ALPN            badoption.Listable[string] `json:"alpn,omitempty"`
	MinVersion      string                     `json:"min_version,omitempty"`
	MaxVersion      string                     `json:"max_version,omitempty"`
	CipherSuites    badoption.Listable[string] `json:"cipher_suites,omitempty"`
	Certificate     badoption.Listable[string] `json:"certificate,omitempty"`
	CertificatePath string                     `json:"certificate_path,omitempty"`
	Key             badoption.Listable[string] `json:"key,omitempty"`
	KeyPath         string                     `json:"key_path,omitempty"`
}
