package netmesh

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// NetworkInfo is one player's view of the fully connected TLS mesh: N+1
// players total (index 0 is the prover by convention), each pair connected
// by exactly one mutually authenticated TLS connection.
//
// Grounded on original_source/networking.{h,cpp} (NetworkInfo,
// Get_Connections, buildSSLConnections, ShowCerts, sign/verify). The
// connection roles follow the convention that for any pair the
// lower-indexed player acts as the TLS server: it accepts the raw TCP
// connection, reads the dialing peer's 4-byte identification integer, and
// then completes the handshake as the server side.
type NetworkInfo struct {
	me, n int
	conns []net.Conn // index by peer id; conns[me] is always nil
	keys  *Keys
}

// New establishes the mesh: it opens a listener on the player's own address,
// accepts from every higher-indexed peer, dials out to every lower-indexed
// peer, and wraps every raw connection in mutually authenticated TLS,
// verifying the peer certificate's CommonName equals "Player<i>" the way
// ShowCerts does.
func New(me, n int, cfg *Config) (*NetworkInfo, error) {
	if len(cfg.Addresses) != n+1 {
		return nil, errors.Newf("netmesh: config has %d addresses, want %d", len(cfg.Addresses), n+1)
	}
	keys, err := LoadKeys(cfg.BasePath, me, n)
	if err != nil {
		return nil, err
	}

	raw := make([]net.Conn, n+1)
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Addresses[me].Port))
	if err != nil {
		return nil, errors.Wrap(err, "netmesh: listening on own port")
	}
	defer ln.Close()

	higherCount := n - me
	accepted := 0
	acceptErrs := make(chan error, 1)
	acceptedConns := make(chan net.Conn, higherCount)
	go func() {
		for accepted < higherCount {
			c, err := ln.Accept()
			if err != nil {
				acceptErrs <- err
				return
			}
			acceptedConns <- c
			accepted++
		}
	}()

	for i := 0; i < me; i++ {
		addr := net.JoinHostPort(cfg.Addresses[i].Host, strconv.Itoa(cfg.Addresses[i].Port))
		c, err := dialWithHandshake(addr, me)
		if err != nil {
			return nil, errors.Wrapf(err, "netmesh: connecting to player %d", i)
		}
		raw[i] = c
	}

	for remaining := higherCount; remaining > 0; remaining-- {
		var c net.Conn
		select {
		case c = <-acceptedConns:
		case err := <-acceptErrs:
			return nil, errors.Wrap(err, "netmesh: accepting connection")
		}
		peer, err := readPeerID(c)
		if err != nil {
			return nil, err
		}
		raw[peer] = c
	}

	tlsConns := make([]net.Conn, n+1)
	for i := 0; i <= n; i++ {
		if i == me {
			continue
		}
		wrapped, err := wrapTLS(raw[i], me, i, keys)
		if err != nil {
			return nil, errors.Wrapf(err, "netmesh: TLS handshake with player %d", i)
		}
		tlsConns[i] = wrapped
	}

	return &NetworkInfo{me: me, n: n, conns: tlsConns, keys: keys}, nil
}

// dialWithHandshake connects to addr, retrying on connection refused for up
// to a few seconds the way original_source/networking.cpp's OpenConnection
// loops on ECONNREFUSED while the peer's listener is still coming up, then
// sends this player's 4-byte identifier.
func dialWithHandshake(addr string, me int) (net.Conn, error) {
	var c net.Conn
	var err error
	deadline := time.Now().Add(10 * time.Second)
	for {
		c, err = net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(50 * time.Millisecond)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(me))
	if _, err := c.Write(buf[:]); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func readPeerID(c net.Conn) (int, error) {
	var buf [4]byte
	if _, err := readFull(c, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(buf[:])), nil
}

// wrapTLS performs the mutually authenticated TLS handshake, with the
// lower-indexed player acting as server, and verifies the peer's
// certificate CommonName matches "Player<peer>".
func wrapTLS(raw net.Conn, me, peer int, keys *Keys) (net.Conn, error) {
	wantCN := "Player" + strconv.Itoa(peer)
	verify := func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		return verifyPeerCommonName(rawCerts, keys.RootPool, wantCN)
	}

	if peer > me { // me is the server for higher-indexed peers
		cfg := &tls.Config{
			Certificates:          []tls.Certificate{keys.TLSCert},
			ClientAuth:            tls.RequireAnyClientCert,
			VerifyPeerCertificate: verify,
			MinVersion:            tls.VersionTLS12,
		}
		conn := tls.Server(raw, cfg)
		if err := conn.Handshake(); err != nil {
			return nil, err
		}
		return conn, nil
	}

	cfg := &tls.Config{
		Certificates:          []tls.Certificate{keys.TLSCert},
		InsecureSkipVerify:    true, // we verify the chain and CN ourselves in VerifyPeerCertificate
		VerifyPeerCertificate: verify,
		MinVersion:            tls.VersionTLS12,
	}
	conn := tls.Client(raw, cfg)
	if err := conn.Handshake(); err != nil {
		return nil, err
	}
	return conn, nil
}

func verifyPeerCommonName(rawCerts [][]byte, roots *x509.CertPool, wantCN string) error {
	if len(rawCerts) == 0 {
		return errors.New("netmesh: peer presented no certificate")
	}
	certs := make([]*x509.Certificate, len(rawCerts))
	for i, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return errors.Wrap(err, "netmesh: parsing peer certificate")
		}
		certs[i] = cert
	}
	leaf := certs[0]
	inter := x509.NewCertPool()
	for _, c := range certs[1:] {
		inter.AddCert(c)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{Roots: roots, Intermediates: inter}); err != nil {
		return errors.Wrap(err, "netmesh: peer certificate chain did not verify")
	}
	if leaf.Subject.CommonName != wantCN {
		return errors.Newf("netmesh: common name mismatch: expected %s, got %s", wantCN, leaf.Subject.CommonName)
	}
	return nil
}

func readFull(c net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := c.Read(buf[n:])
		if err != nil {
			return n, err
		}
		n += k
	}
	return n, nil
}

// Read blocks until length bytes have arrived from peer.
func (ni *NetworkInfo) Read(peer int, data []byte) error {
	conn := ni.conns[peer]
	if conn == nil {
		return errors.Newf("netmesh: no connection to player %d", peer)
	}
	_, err := readFull(conn, data)
	return err
}

// Write sends the full contents of data to peer.
func (ni *NetworkInfo) Write(peer int, data []byte) error {
	conn := ni.conns[peer]
	if conn == nil {
		return errors.Newf("netmesh: no connection to player %d", peer)
	}
	_, err := conn.Write(data)
	return err
}

// CloseConnection tears down the connection to peer.
func (ni *NetworkInfo) CloseConnection(peer int) error {
	if ni.conns[peer] == nil {
		return nil
	}
	err := ni.conns[peer].Close()
	ni.conns[peer] = nil
	return err
}

// Sign returns an ASN.1 DER ECDSA signature over SHA-256(data) under this
// player's own signing key.
func (ni *NetworkInfo) Sign(data []byte) ([]byte, error) {
	h := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, ni.keys.SignKey, h[:])
}

// Verify checks an ASN.1 DER ECDSA signature from peer over SHA-256(data).
func (ni *NetworkInfo) Verify(peer int, data, sig []byte) bool {
	pub, ok := ni.keys.PeerSigner[peer]
	if !ok {
		return false
	}
	h := sha256.Sum256(data)
	return ecdsa.VerifyASN1(pub, h[:], sig)
}
