package bitio

import "github.com/feta-zk/feta/internal/field"

// GFReader reads a stream of field elements of a fixed width K, K bits at a
// time, from an underlying BitReader.
type GFReader struct {
	f   *field.Field
	src BitReader
}

func NewGFReader(f *field.Field, src BitReader) *GFReader {
	return &GFReader{f: f, src: src}
}

// Next reads the next K-bit field element.
func (r *GFReader) Next() (field.Elem, error) {
	bits := make([]bool, r.f.K)
	for i := range bits {
		b, err := r.src.GetBit()
		if err != nil {
			return field.Elem{}, err
		}
		bits[i] = b
	}
	return r.f.FromBits(bits), nil
}

// GFWriter writes a stream of field elements of a fixed width K to an
// underlying BitWriter.
type GFWriter struct {
	f   *field.Field
	dst BitWriter
}

func NewGFWriter(f *field.Field, dst BitWriter) *GFWriter {
	return &GFWriter{f: f, dst: dst}
}

func (w *GFWriter) Next(e field.Elem) {
	for _, b := range e.ToBits() {
		w.dst.PutBit(b)
	}
}
