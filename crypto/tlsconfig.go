package crypto

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// NewAuthorityTLSConfig builds a tls.Config trusting only the supplied
// PEM-encoded authority CA certificates, for authority-to-authority and
// indexer connections per spec.md §6.1 ("All transports use TLS").
//
// This is one of the rare standard-library-only components: no
// third-party TLS library appears anywhere in the example pack (even
// go-ethereum's own rpc package relies on crypto/tls directly), so
// there is nothing in the domain stack to wire here.
func NewAuthorityTLSConfig(caPEMs [][]byte) (*tls.Config, error) {
	pool := x509.NewCertPool()
	for i, pem := range caPEMs {
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to parse authority CA certificate #%d", i)
		}
	}
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
