package tls

import (
	"crypto/tls"
	"crypto/x509"
)

// CertificateVerifier decides whether the certificate chain a backend
// presents during the outbound handshake is acceptable. It replaces the
// standard chain, host name and validity checks entirely.
type CertificateVerifier interface {
	VerifyCertificate(serverName string, certificates []*x509.Certificate) error
}

var _ CertificateVerifier = AcceptAnyCertificate{}

// AcceptAnyCertificate trusts every certificate a backend presents:
// expired, self-signed, untrusted or issued for another name. Backend
// identity is assumed by deployment; only the inbound side carries a
// verifiable identity.
type AcceptAnyCertificate struct{}

func (AcceptAnyCertificate) VerifyCertificate(serverName string, certificates []*x509.Certificate) error {
	return nil
}

func applyVerifier(config *tls.Config, verifier CertificateVerifier) {
	config.InsecureSkipVerify = true
	config.VerifyConnection = func(state tls.ConnectionState) error {
		return verifier.VerifyCertificate(state.ServerName, state.PeerCertificates)
	}
}
