// Package nettest generates throwaway TLS/signing key material for
// integration tests of internal/netmesh and internal/player, so those tests
// can exercise real TCP+TLS connections instead of mocking the transport.
package nettest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateFixture writes a Root CA plus Player<i>.{crt,key,priv,pub} for
// i in [0,n] under dir, and returns a loopback port reserved for each
// player.
func GenerateFixture(dir string, n int) ([]int, error) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}
	if err := writePEM(filepath.Join(dir, "Root.crt"), "CERTIFICATE", caDER); err != nil {
		return nil, err
	}

	ports := make([]int, n+1)
	for i := 0; i <= n; i++ {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(int64(i) + 2),
			Subject:      pkix.Name{CommonName: fmt.Sprintf("Player%d", i)},
			NotBefore:    time.Now().Add(-time.Hour),
			NotAfter:     time.Now().Add(time.Hour),
			KeyUsage:     x509.KeyUsageDigitalSignature,
			ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, caCert, &key.PublicKey, caKey)
		if err != nil {
			return nil, err
		}
		if err := writePEM(filepath.Join(dir, fmt.Sprintf("Player%d.crt", i)), "CERTIFICATE", der); err != nil {
			return nil, err
		}
		keyBytes, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, err
		}
		if err := writePEM(filepath.Join(dir, fmt.Sprintf("Player%d.key", i)), "EC PRIVATE KEY", keyBytes); err != nil {
			return nil, err
		}

		sigKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		sigPriv, err := x509.MarshalECPrivateKey(sigKey)
		if err != nil {
			return nil, err
		}
		if err := writePEM(filepath.Join(dir, fmt.Sprintf("Player%d.priv", i)), "EC PRIVATE KEY", sigPriv); err != nil {
			return nil, err
		}
		sigPub, err := x509.MarshalPKIXPublicKey(&sigKey.PublicKey)
		if err != nil {
			return nil, err
		}
		if err := writePEM(filepath.Join(dir, fmt.Sprintf("Player%d.pub", i)), "PUBLIC KEY", sigPub); err != nil {
			return nil, err
		}

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		ports[i] = ln.Addr().(*net.TCPAddr).Port
		if err := ln.Close(); err != nil {
			return nil, err
		}
	}
	return ports, nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}

// ConfigText renders the netmesh config file format for n+1 players all
// listening on 127.0.0.1, given a base path and their reserved ports.
func ConfigText(basePath string, ports []int) string {
	var b strings.Builder
	b.WriteString(basePath + "\n")
	for _, p := range ports {
		fmt.Fprintf(&b, "127.0.0.1 %d\n", p)
	}
	return b.String()
}
