package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HerrCai0907/wasm-analyzer/api"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

func u32leb(v uint32) []byte {
	var b []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
		} else {
			b = append(b, c)
			break
		}
	}
	return b
}

func section(id SectionID, body []byte) []byte {
	return append([]byte{byte(id)}, append(u32leb(uint32(len(body))), body...)...)
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func TestDecodeModule_InvalidMagic(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidMagicNumber)
}

func TestDecodeModule_InvalidVersion(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecodeModule_EmptyModule(t *testing.T) {
	m, err := DecodeModule(header())
	require.NoError(t, err)
	require.Empty(t, m.FunctionTypes)
	require.Empty(t, m.Functions)
}

// a single function `(func (param i32 i32) (result i32) local.get 0 local.get 1 i32.add end)`
func TestDecodeModule_SingleFunction(t *testing.T) {
	typeSection := section(SectionType, append(u32leb(1),
		append([]byte{0x60}, append(
			append(u32leb(2), api.ValueTypeI32, api.ValueTypeI32),
			append(u32leb(1), api.ValueTypeI32)...,
		)...)...,
	))
	funcSection := section(SectionFunction, append(u32leb(1), u32leb(0)...))
	body := []byte{
		byte(wasm.LocalGet), 0x00,
		byte(wasm.LocalGet), 0x01,
		byte(wasm.I32Add),
		byte(wasm.End),
	}
	code := append(u32leb(0), body...) // zero local groups
	codeSection := section(SectionCode, append(u32leb(1), append(u32leb(uint32(len(code))), code...)...))

	data := append(header(), typeSection...)
	data = append(data, funcSection...)
	data = append(data, codeSection...)

	m, err := DecodeModule(data)
	require.NoError(t, err)
	require.Len(t, m.FunctionTypes, 1)
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, m.FunctionTypes[0].Params)
	require.Equal(t, []api.ValueType{api.ValueTypeI32}, m.FunctionTypes[0].Results)

	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	require.False(t, fn.IsImport)
	require.Len(t, fn.Instrs, 4)
	require.Equal(t, wasm.LocalGet, fn.Instrs[0].Code)
	require.Equal(t, uint32(0), fn.Instrs[0].Index)
	require.Equal(t, wasm.LocalGet, fn.Instrs[1].Code)
	require.Equal(t, uint32(1), fn.Instrs[1].Index)
	require.Equal(t, wasm.I32Add, fn.Instrs[2].Code)
	require.Equal(t, wasm.End, fn.Instrs[3].Code)
}

func TestDecodeModule_CodeMissingEnd(t *testing.T) {
	typeSection := section(SectionType, append(u32leb(1), []byte{0x60, 0x00, 0x00}...))
	funcSection := section(SectionFunction, append(u32leb(1), u32leb(0)...))
	body := []byte{byte(wasm.Nop)}
	code := append(u32leb(0), body...)
	codeSection := section(SectionCode, append(u32leb(1), append(u32leb(uint32(len(code))), code...)...))

	data := append(header(), typeSection...)
	data = append(data, funcSection...)
	data = append(data, codeSection...)

	_, err := DecodeModule(data)
	require.ErrorIs(t, err, ErrCodeMissingEnd)
}

func TestDecodeModule_MemorySizeRejectsNonZeroReservedByte(t *testing.T) {
	typeSection := section(SectionType, append(u32leb(1), []byte{0x60, 0x00, 0x00}...))
	funcSection := section(SectionFunction, append(u32leb(1), u32leb(0)...))
	body := []byte{byte(wasm.MemorySize), 0x01, byte(wasm.End)}
	code := append(u32leb(0), body...)
	codeSection := section(SectionCode, append(u32leb(1), append(u32leb(uint32(len(code))), code...)...))

	data := append(header(), typeSection...)
	data = append(data, funcSection...)
	data = append(data, codeSection...)

	_, err := DecodeModule(data)
	require.ErrorIs(t, err, ErrInvalidReservedByte)
}

func TestDecodeModule_MemoryGrowAcceptsZeroReservedByte(t *testing.T) {
	typeSection := section(SectionType, append(u32leb(1), []byte{0x60, 0x00, 0x00}...))
	funcSection := section(SectionFunction, append(u32leb(1), u32leb(0)...))
	body := []byte{byte(wasm.MemoryGrow), 0x00, byte(wasm.End)}
	code := append(u32leb(0), body...)
	codeSection := section(SectionCode, append(u32leb(1), append(u32leb(uint32(len(code))), code...)...))

	data := append(header(), typeSection...)
	data = append(data, funcSection...)
	data = append(data, codeSection...)

	_, err := DecodeModule(data)
	require.NoError(t, err)
}

func TestConsumeBlockType_SingleValueByteIsConsumed(t *testing.T) {
	// Regression test: a single value-type block type must advance the cursor by exactly one
	// byte, leaving any following bytes (here, an End opcode) for the caller to consume.
	d := &decoder{buf: []byte{api.ValueTypeI32, byte(wasm.End)}}
	bt, err := d.consumeBlockType(&wasm.Module{})
	require.NoError(t, err)
	require.Equal(t, []api.ValueType{api.ValueTypeI32}, bt.Results)
	require.Equal(t, []byte{byte(wasm.End)}, d.buf)
}
