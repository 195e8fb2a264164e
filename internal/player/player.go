// Package player layers the protocol-level communication primitives
// (framed send/recv, broadcast/gather, commit-then-open seed agreement, and
// the round-barrier sync) on top of internal/netmesh's authenticated
// connections, per spec.md §4.I.
package player

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/feta-zk/feta/internal/netmesh"
	"github.com/feta-zk/feta/internal/prng"
)

// ErrInvalidSignature is returned by RecvFrom when a signed message's
// signature does not verify, mirroring the reference's invalid_signature.
type ErrInvalidSignature struct{ Peer int }

func (e ErrInvalidSignature) Error() string {
	return fmt.Sprintf("player: invalid signature from player %d", e.Peer)
}

// ErrCheatingPeer is raised by CommitOpenSeed when a peer's revealed seed
// does not match its earlier commitment.
type ErrCheatingPeer struct{ Peer int }

func (e ErrCheatingPeer) Error() string {
	return fmt.Sprintf("player: player %d tried to cheat while establishing a seed", e.Peer)
}

const seedSize = 32

// Player represents one party, by convention player 0 is the prover. Driver
// programs control protocol flow; Player only owns communication.
type Player struct {
	Idx int
	N   int
	net *netmesh.NetworkInfo
}

// New builds a Player by establishing the underlying TLS mesh.
func New(idx, n int, netConfig io.Reader) (*Player, error) {
	cfg, err := netmesh.LoadConfig(netConfig, n)
	if err != nil {
		return nil, err
	}
	ni, err := netmesh.New(idx, n, cfg)
	if err != nil {
		return nil, err
	}
	return &Player{Idx: idx, N: n, net: ni}, nil
}

// CloseConnection tears down the connection to peer.
func (p *Player) CloseConnection(peer int) error {
	return p.net.CloseConnection(peer)
}

// RecvFrom reads one length-prefixed message from player. When sign is
// true, a second length-prefixed message is read immediately after and
// checked as the first message's signature.
func (p *Player) RecvFrom(player int, sign bool) ([]byte, error) {
	var lenBuf [4]byte
	if err := p.net.Read(player, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	data := make([]byte, length)
	if length > 0 {
		if err := p.net.Read(player, data); err != nil {
			return nil, err
		}
	}
	if sign {
		sig, err := p.RecvFrom(player, false)
		if err != nil {
			return nil, err
		}
		if !p.net.Verify(player, data, sig) {
			return nil, ErrInvalidSignature{Peer: player}
		}
	}
	return data, nil
}

// RecvFromAll reads one message from every player except itself and skip
// (skip<0 means nobody is skipped); the entries for itself and skip are
// left as empty slices.
func (p *Player) RecvFromAll(sign bool, skip int) ([][]byte, error) {
	res := make([][]byte, p.N+1)
	for i := 0; i <= p.N; i++ {
		if i == p.Idx || i == skip {
			continue
		}
		data, err := p.RecvFrom(i, sign)
		if err != nil {
			return nil, err
		}
		res[i] = data
	}
	return res, nil
}

// SendTo writes one length-prefixed message to player, optionally followed
// by a length-prefixed signature over it.
func (p *Player) SendTo(player int, data []byte, sign bool) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if err := p.net.Write(player, lenBuf[:]); err != nil {
		return err
	}
	if err := p.net.Write(player, data); err != nil {
		return err
	}
	if sign {
		sig, err := p.net.Sign(data)
		if err != nil {
			return err
		}
		return p.SendTo(player, sig, false)
	}
	return nil
}

// SendAll writes data (optionally signed once and reused) to every player
// except itself and skip.
func (p *Player) SendAll(data []byte, sign bool, skip int) error {
	if !sign {
		for i := 0; i <= p.N; i++ {
			if i == p.Idx || i == skip {
				continue
			}
			if err := p.SendTo(i, data, false); err != nil {
				return err
			}
		}
		return nil
	}

	sig, err := p.net.Sign(data)
	if err != nil {
		return err
	}
	for i := 0; i <= p.N; i++ {
		if i == p.Idx || i == skip {
			continue
		}
		if err := p.SendTo(i, data, false); err != nil {
			return err
		}
		if err := p.SendTo(i, sig, false); err != nil {
			return err
		}
	}
	return nil
}

// CommitOpenSeed runs the commit-then-reveal protocol that XORs a fresh
// random seed from every party (except skip) into gen, reseeding it. Any
// party whose revealed seed doesn't match its earlier SHA-256 commitment is
// reported via ErrCheatingPeer.
func (p *Player) CommitOpenSeed(gen *prng.PRNG, skip int) error {
	mySeed := gen.RandomBytes(seedSize)
	commitment := sha256Sum(mySeed)

	if err := p.SendAll(commitment, false, skip); err != nil {
		return err
	}
	allCommitments, err := p.RecvFromAll(false, skip)
	if err != nil {
		return err
	}

	if err := p.SendAll(mySeed, false, skip); err != nil {
		return err
	}
	allSeeds, err := p.RecvFromAll(false, skip)
	if err != nil {
		return err
	}

	combined := append([]byte(nil), mySeed...)
	for i := 0; i <= p.N; i++ {
		if i == skip || i == p.Idx {
			continue
		}
		if len(allSeeds[i]) != seedSize {
			return ErrCheatingPeer{Peer: i}
		}
		got := sha256Sum(allSeeds[i])
		if !bytesEqual(got, allCommitments[i]) {
			return ErrCheatingPeer{Peer: i}
		}
		for j := 0; j < seedSize; j++ {
			combined[j] ^= allSeeds[i][j]
		}
	}

	var seed [32]byte
	copy(seed[:], combined)
	gen.SetSeedFromRandom(seed)
	return nil
}

// Sync is a round barrier: every party sends a single byte to every other
// party and waits to receive one back, ensuring no party races ahead into
// the next protocol phase before its peers are ready.
func (p *Player) Sync() error {
	if err := p.SendAll([]byte{1}, false, -1); err != nil {
		return err
	}
	_, err := p.RecvFromAll(false, -1)
	return err
}

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
