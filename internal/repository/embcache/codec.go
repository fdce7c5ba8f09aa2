package embcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Cached vectors are stored as: magic byte, version byte, uint32 dimension,
// then dimension little-endian float32 values.
const (
	codecMagic   byte = 'E'
	codecVersion byte = 1
	headerLen         = 6
)

var errCorrupt = errors.New("corrupt cached embedding")

func encodeVector(v []float32) []byte {
	buf := make([]byte, headerLen+len(v)*4)
	buf[0], buf[1] = codecMagic, codecVersion
	binary.LittleEndian.PutUint32(buf[2:], uint32(len(v))) //nolint:gosec // embedding dimensions are small
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[headerLen+i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < headerLen || data[0] != codecMagic {
		return nil, fmt.Errorf("%w: bad header", errCorrupt)
	}
	if data[1] != codecVersion {
		return nil, fmt.Errorf("%w: version %d", errCorrupt, data[1])
	}
	dim := int(binary.LittleEndian.Uint32(data[2:]))
	if dim == 0 || len(data) != headerLen+dim*4 {
		return nil, fmt.Errorf("%w: %d bytes for dimension %d", errCorrupt, len(data), dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerLen+i*4:]))
	}
	return vec, nil
}
