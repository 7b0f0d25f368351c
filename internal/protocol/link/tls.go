package link

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
)

// clientConfig loads the CA bundle and client pair named by t. The server
// name defaults to the host part of address.
func (t TLSConfig) clientConfig(address string) (*tls.Config, error) {
	serverName := strings.TrimSpace(t.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return nil, fmt.Errorf("link: tls server name from %q: %w", address, err)
		}
		serverName = host
	}
	out := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         serverName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}

	if path := strings.TrimSpace(t.CAFile); path != "" {
		pool, err := loadCertPool(path)
		if err != nil {
			return nil, err
		}
		out.RootCAs = pool
	}
	if t.Mutual {
		pair, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("link: load client pair: %w", err)
		}
		out.Certificates = []tls.Certificate{pair}
	}
	return out, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("link: read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("link: no certificates in ca bundle %s", path)
	}
	return pool, nil
}
