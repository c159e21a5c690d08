// Package leb128 encodes and decodes integers in the variable-length LEB128
// format used throughout the WebAssembly binary format.
package leb128

import (
	"bytes"
	"fmt"
	"io"
)

const (
	maxVarintLen32 = 5
	maxVarintLen33 = 5
	maxVarintLen64 = 10
)

// LoadUint32 decodes an unsigned LEB128-encoded uint32 from the head of buf, returning the
// decoded value and the number of bytes consumed.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	v, n, err := decodeUnsigned(buf, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(v), n, nil
}

// LoadUint64 decodes an unsigned LEB128-encoded uint64 from the head of buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	return decodeUnsigned(buf, 64)
}

// LoadInt32 decodes a signed LEB128-encoded int32 from the head of buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	v, n, err := decodeSigned(buf, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// LoadInt64 decodes a signed LEB128-encoded int64 from the head of buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return decodeSigned(buf, 64)
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value (used for wasm block types) as an
// int64, reading from r.
func DecodeInt33AsInt64(r *bytes.Reader) (ret int64, bytesRead uint64, err error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, err
	}
	return decodeSigned(buf, 33)
}

func decodeUnsigned(buf []byte, bits int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var n uint64
	maxLen := maxLenFor(bits)
	for {
		if n >= maxLen {
			return 0, 0, fmt.Errorf("invalid number: exceeds %d bits", bits)
		}
		if int(n) >= len(buf) {
			return 0, 0, fmt.Errorf("invalid number: unexpected end of buffer")
		}
		b := buf[n]
		n++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			// The final byte's payload bits that land at or above the target width must be zero.
			if shift+7 > uint(bits) && uint64(b&0x7f)>>(uint(bits)-shift) != 0 {
				return 0, 0, fmt.Errorf("invalid number: overflows %d bits", bits)
			}
			return result, n, nil
		}
		shift += 7
	}
}

func decodeSigned(buf []byte, bits int) (int64, uint64, error) {
	var result int64
	var shift uint
	var n uint64
	var b byte
	maxLen := maxLenFor(bits)
	for {
		if n >= maxLen {
			return 0, 0, fmt.Errorf("invalid number: exceeds %d bits", bits)
		}
		if int(n) >= len(buf) {
			return 0, 0, fmt.Errorf("invalid number: unexpected end of buffer")
		}
		b = buf[n]
		n++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// sign extend if the sign bit of the last read byte group is set and we haven't
	// consumed the full width.
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}
	if bits < 64 {
		shiftOut := uint(64 - bits)
		if (result<<shiftOut)>>shiftOut != result {
			return 0, 0, fmt.Errorf("invalid number: overflows %d bits", bits)
		}
	}
	return result, n, nil
}

func maxLenFor(bits int) uint64 {
	switch {
	case bits <= 32:
		return maxVarintLen32
	case bits == 33:
		return maxVarintLen33
	default:
		return maxVarintLen64
	}
}

// EncodeUint32 encodes v using unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return encodeUnsigned(uint64(v))
}

// EncodeUint64 encodes v using unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	return encodeUnsigned(v)
}

func encodeUnsigned(v uint64) []byte {
	var buf []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

// EncodeInt32 encodes v using signed LEB128.
func EncodeInt32(v int32) []byte {
	return encodeSigned(int64(v))
}

// EncodeInt64 encodes v using signed LEB128.
func EncodeInt64(v int64) []byte {
	return encodeSigned(v)
}

func encodeSigned(v int64) []byte {
	var buf []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}
