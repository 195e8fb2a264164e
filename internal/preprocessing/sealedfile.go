package preprocessing

import (
	"fmt"
	"io"
	"os"

	"github.com/cloudflare/circl/hpke"
	"github.com/cloudflare/circl/kem"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/field"
)

// Suite is the HPKE (RFC 9180) cipher suite this project seals preprocessed
// share files under: base-mode, X25519/HKDF-SHA256/AES-128-GCM. This is a
// [SUPPLEMENT]: the original preprocessing.cpp writes Player<i>.pre in the
// clear (grounded on donor hpke/contract.go's hpke.NewSuite /
// KEM_X25519_HKDF_SHA256 wiring, see DESIGN.md and SPEC_FULL.md DOMAIN
// STACK).
const suiteKEM = hpke.KEM_X25519_HKDF_SHA256

var Suite = hpke.NewSuite(suiteKEM, hpke.KDF_HKDF_SHA256, hpke.AEAD_AES128GCM)

const sealInfo = "feta-preprocessing-share-file"

// GenerateKeyPair produces a fresh HPKE keypair for sealing a party's own
// preprocessed share file at rest.
func GenerateKeyPair() (kem.PublicKey, kem.PrivateKey, error) {
	return suiteKEM.Scheme().GenerateKeyPair()
}

// encodeShares bit-concatenates the base-field elements followed by the
// extension-field elements, per spec.md §3/§6 "Preprocessed share file".
func encodeShares(fldBase, fldExt *field.Field, base, ext []field.Elem) []byte {
	w := bitio.NewBufferBitWriter()
	bw := bitio.NewGFWriter(fldBase, w)
	for _, e := range base {
		bw.Next(e)
	}
	ew := bitio.NewGFWriter(fldExt, w)
	for _, e := range ext {
		ew.Next(e)
	}
	return w.Drain()
}

func decodeShares(fldBase, fldExt *field.Field, data []byte, nout, noutC int) (base, ext []field.Elem, err error) {
	r := bitio.NewBufferBitReader(data)
	br := bitio.NewGFReader(fldBase, r)
	base = make([]field.Elem, nout)
	for i := range base {
		base[i], err = br.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("preprocessing: decoding base-field share %d: %w", i, err)
		}
	}
	if noutC == 0 {
		return base, nil, nil
	}
	er := bitio.NewGFReader(fldExt, r)
	ext = make([]field.Elem, noutC)
	for i := range ext {
		ext[i], err = er.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("preprocessing: decoding extension-field share %d: %w", i, err)
		}
	}
	return base, ext, nil
}

// WriteShareFile seals base||ext (base-field shares first, per the
// preprocessing file's binary layout) with an HPKE base-mode seal under pub
// and writes enc||ciphertext to w.
func WriteShareFile(w io.Writer, pub kem.PublicKey, fldBase, fldExt *field.Field, base, ext []field.Elem) error {
	plaintext := encodeShares(fldBase, fldExt, base, ext)

	sender, err := Suite.NewSender(pub, []byte(sealInfo))
	if err != nil {
		return fmt.Errorf("preprocessing: constructing HPKE sender: %w", err)
	}
	enc, sealer, err := sender.Setup(nil)
	if err != nil {
		return fmt.Errorf("preprocessing: HPKE setup: %w", err)
	}
	ciphertext, err := sealer.Seal(plaintext, nil)
	if err != nil {
		return fmt.Errorf("preprocessing: HPKE seal: %w", err)
	}

	if _, err := w.Write(enc); err != nil {
		return err
	}
	_, err = w.Write(ciphertext)
	return err
}

// WriteKeyPair persists an HPKE keypair as two files, pubPath and privPath,
// so a driver program can generate a party's sealing key once and reuse it
// across preprocessing runs.
func WriteKeyPair(pubPath, privPath string, pub kem.PublicKey, priv kem.PrivateKey) error {
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return fmt.Errorf("preprocessing: marshalling public key: %w", err)
	}
	if err := os.WriteFile(pubPath, pubBytes, 0o644); err != nil {
		return err
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return fmt.Errorf("preprocessing: marshalling private key: %w", err)
	}
	return os.WriteFile(privPath, privBytes, 0o600)
}

// ReadPublicKey loads a public key previously written by WriteKeyPair.
func ReadPublicKey(path string) (kem.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return suiteKEM.Scheme().UnmarshalBinaryPublicKey(data)
}

// ReadPrivateKey loads a private key previously written by WriteKeyPair.
func ReadPrivateKey(path string) (kem.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return suiteKEM.Scheme().UnmarshalBinaryPrivateKey(data)
}

// LoadOrGenerateKeyPair reads an existing keypair from pubPath/privPath, or
// generates and persists a fresh one if either file is absent.
func LoadOrGenerateKeyPair(pubPath, privPath string) (kem.PublicKey, kem.PrivateKey, error) {
	if _, err := os.Stat(pubPath); err == nil {
		if _, err := os.Stat(privPath); err == nil {
			pub, err := ReadPublicKey(pubPath)
			if err != nil {
				return nil, nil, err
			}
			priv, err := ReadPrivateKey(privPath)
			if err != nil {
				return nil, nil, err
			}
			return pub, priv, nil
		}
	}
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	if err := WriteKeyPair(pubPath, privPath, pub, priv); err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// ReadShareFile reverses WriteShareFile: it reads the full contents of r,
// splits off the KEM encapsulation (its length is fixed by the suite), opens
// the HPKE ciphertext under priv, and decodes nout base-field and noutC
// extension-field elements from the plaintext.
func ReadShareFile(r io.Reader, priv kem.PrivateKey, fldBase, fldExt *field.Field, nout, noutC int) (base, ext []field.Elem, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	encLen := suiteKEM.Scheme().CiphertextSize()
	if len(raw) < encLen {
		return nil, nil, fmt.Errorf("preprocessing: share file too short for HPKE encapsulation")
	}
	enc, ciphertext := raw[:encLen], raw[encLen:]

	receiver, err := Suite.NewReceiver(priv, []byte(sealInfo))
	if err != nil {
		return nil, nil, fmt.Errorf("preprocessing: constructing HPKE receiver: %w", err)
	}
	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, nil, fmt.Errorf("preprocessing: HPKE setup: %w", err)
	}
	plaintext, err := opener.Open(ciphertext, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("preprocessing: HPKE open: %w", err)
	}

	return decodeShares(fldBase, fldExt, plaintext, nout, noutC)
}
