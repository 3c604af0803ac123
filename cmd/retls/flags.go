package main

import (
	"strings"
	"time"

	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/option"
	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/json/badoption"

	"github.com/spf13/pflag"
)

const (
	flagListen            = "listen"
	flagBackend           = "backend"
	flagBackendServerName = "backend-server-name"
	flagTimeoutMs         = "timeout-ms"
	flagCertificate       = "cert"
	flagKey               = "key"
	flagLogLevel          = "log-level"
)

var environmentFlags = []string{
	flagListen,
	flagBackend,
	flagBackendServerName,
	flagTimeoutMs,
	flagCertificate,
	flagKey,
	flagLogLevel,
}

// proxyFlags override the configuration file. Each one may also be given
// through a RETLS_ environment variable.
type proxyFlags struct {
	listen            string
	backend           string
	backendServerName string
	timeoutMs         int64
	certificatePath   string
	keyPath           string
	logLevel          string
}

func (f *proxyFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.listen, flagListen, "", "listen address, host:port")
	flags.StringVar(&f.backend, flagBackend, "", "backend address, prefix with "+C.BackendSchemeTLS+" for an encrypted backend")
	flags.StringVar(&f.backendServerName, flagBackendServerName, "", "server name presented to an encrypted backend")
	flags.Int64Var(&f.timeoutMs, flagTimeoutMs, C.DefaultConnectTimeout.Milliseconds(), "backend connect timeout in milliseconds")
	flags.StringVar(&f.certificatePath, flagCertificate, "", "server certificate chain path (PEM)")
	flags.StringVar(&f.keyPath, flagKey, "", "server private key path (PEM)")
	flags.StringVar(&f.logLevel, flagLogLevel, "", "log level, one of: trace debug info warn error fatal")
}

func environmentName(flagName string) string {
	return C.EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// bindEnvironment fills every flag not given on the command line from its
// environment variable, so flags take precedence over the environment.
func (f *proxyFlags) bindEnvironment(flags *pflag.FlagSet, lookupEnv func(string) (string, bool)) error {
	for _, name := range environmentFlags {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		value, loaded := lookupEnv(environmentName(name))
		if !loaded {
			continue
		}
		err := flags.Set(name, value)
		if err != nil {
			return E.Cause(err, "parse environment variable ", environmentName(name))
		}
	}
	return nil
}

// apply overrides options with every flag set on the command line or through
// the environment.
func (f *proxyFlags) apply(flags *pflag.FlagSet, options *option.Options) error {
	if flags.Changed(flagListen) {
		options.Inbound.Listen = f.listen
	}
	if flags.Changed(flagBackend) {
		options.Backend.Address = f.backend
	}
	if flags.Changed(flagBackendServerName) {
		options.Backend.TLS.ServerName = f.backendServerName
	}
	if flags.Changed(flagTimeoutMs) {
		if f.timeoutMs <= 0 {
			return E.New("invalid ", flagTimeoutMs, ": ", f.timeoutMs)
		}
		options.Backend.ConnectTimeout = badoption.Duration(time.Duration(f.timeoutMs) * time.Millisecond)
	}
	if flags.Changed(flagCertificate) {
		options.Inbound.TLS.CertificatePath = f.certificatePath
		options.Inbound.TLS.Certificate = nil
	}
	if flags.Changed(flagKey) {
		options.Inbound.TLS.KeyPath = f.keyPath
		options.Inbound.TLS.Key = nil
	}
	if flags.Changed(flagLogLevel) {
		if options.Log == nil {
			options.Log = &option.LogOptions{}
		}
		options.Log.Level = f.logLevel
	}
	return nil
}
