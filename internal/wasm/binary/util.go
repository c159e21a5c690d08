package binary

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/HerrCai0907/wasm-analyzer/internal/leb128"
)

func le32ToFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func le64ToFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// leb128FromDecoder decodes a signed 33-bit LEB128 value from the head of buf, returning the
// value and the number of bytes consumed.
func leb128FromDecoder(buf []byte) (int64, uint64, error) {
	return leb128.DecodeInt33AsInt64(bytes.NewReader(buf))
}
