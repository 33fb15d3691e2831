// Package vector holds the binary storage format for embeddings.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/vecrag/internal/domain"
)

// Encode serializes v as little-endian IEEE-754 float32 values, 4 bytes per dimension.
func Encode(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// Decode parses a blob produced by Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty blob", domain.ErrCorruptVector)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", domain.ErrCorruptVector, len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
