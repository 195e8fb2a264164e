package logproof

import (
	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/prng"
)

// FSProofStream is a verifier's read-side view of the proof bytes: every
// element it reads (whether ShareField- or CheckField-width) is re-written
// into a second, hashable buffer, so a Fiat-Shamir challenge taken midway
// through verification is derived from exactly the bits actually consumed
// so far — never the whole proof, which the verifier hasn't fully read yet
// at that point.
//
// Grounded on log/verifier.cpp's FSProofStream: m_proof and m_proofC share
// one underlying BufferBitReader (reads interleave regardless of which
// field width is requested), and m_consumed/m_consumedC likewise share one
// HashableBufferBitWriter.
type FSProofStream struct {
	proof, proofC       *bitio.GFReader
	consumed            *bitio.HashableBufferBitWriter
	consumedW, consumedC *bitio.GFWriter
}

// NewFSProofStream builds a stream over proof, reading ShareField-width
// elements through Next and CheckField-width elements through NextC.
func NewFSProofStream(shareField, checkField *field.Field, proof []byte) *FSProofStream {
	src := bitio.NewBufferBitReader(proof)
	consumed := bitio.NewHashableBufferBitWriter()
	return &FSProofStream{
		proof:     bitio.NewGFReader(shareField, src),
		proofC:    bitio.NewGFReader(checkField, src),
		consumed:  consumed,
		consumedW: bitio.NewGFWriter(shareField, consumed),
		consumedC: bitio.NewGFWriter(checkField, consumed),
	}
}

// Next reads the next ShareField-width element.
func (s *FSProofStream) Next() (field.Elem, error) {
	e, err := s.proof.Next()
	if err != nil {
		return field.Elem{}, err
	}
	s.consumedW.Next(e)
	return e, nil
}

// NextC reads the next CheckField-width element.
func (s *FSProofStream) NextC() (field.Elem, error) {
	e, err := s.proofC.Next()
	if err != nil {
		return field.Elem{}, err
	}
	s.consumedC.Next(e)
	return e, nil
}

// HashSeed reseeds gen from everything read so far, as if only that much of
// the proof had been written, matching the prover's own HashSeed call at
// the same logical point in the protocol.
func (s *FSProofStream) HashSeed(gen *prng.PRNG) {
	s.consumed.HashSeed(gen)
}
