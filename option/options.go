package option

import (
	"bytes"

	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/json"
)

type _Options struct {
	Schema  string         `json:"$schema,omitempty"`
	Log     *LogOptions    `json:"log,omitempty"`
	Inbound InboundOptions `json:"inbound"`
	Backend BackendOptions `json:"backend"`
}

type Options _Options

func (o *Options) UnmarshalJSON(content []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	return decoder.Decode((*_Options)(o))
}

type LogOptions struct {
	Disabled     bool   `json:"disabled,omitempty"`
	Level        string `json:"level,omitempty"`
	Output       string `json:"output,omitempty"`
	Timestamp    bool   `json:"timestamp,omitempty"`
	DisableColor bool   `json:"-"`
}

// Check reports options that can never produce a working proxy.
func (o Options) Check() error {
	if o.Inbound.Listen == "" {
		return E.New("missing listen address")
	}
	if o.Backend.Address == "" {
		return E.New("missing backend address")
	}
	if len(o.Inbound.TLS.Certificate) == 0 && o.Inbound.TLS.CertificatePath == "" {
		return E.New("missing certificate")
	}
	if len(o.Inbound.TLS.Key) == 0 && o.Inbound.TLS.KeyPath == "" {
		return E.New("missing key")
	}
	if o.Backend.ConnectTimeout < 0 {
		return E.New("invalid connect_timeout: ", o.Backend.ConnectTimeout)
	}
	return nil
}
