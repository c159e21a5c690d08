// Package binary decodes the WebAssembly MVP binary format into the internal/wasm data
// model. Sections that no analysis in this repository inspects (table, memory, global,
// export, element, data) are still walked byte-for-byte so the section stream stays
// aligned, but their contents are discarded without validation.
package binary

import (
	"errors"
	"fmt"

	"github.com/HerrCai0907/wasm-analyzer/api"
	"github.com/HerrCai0907/wasm-analyzer/internal/leb128"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	version = []byte{0x01, 0x00, 0x00, 0x00}

	// ErrInvalidMagicNumber is returned when the first four bytes aren't "\0asm".
	ErrInvalidMagicNumber = errors.New("binary: invalid magic number")
	// ErrInvalidVersion is returned when the version field isn't 1.
	ErrInvalidVersion = errors.New("binary: invalid version")
	// ErrEmptyBinary is returned when a byte is requested past the end of the input.
	ErrEmptyBinary = errors.New("binary: unexpected end of binary")
	// ErrCodeMissingEnd is returned when a function body's instruction stream doesn't
	// terminate with an explicit End opcode.
	ErrCodeMissingEnd = errors.New("binary: code does not end with end opcode")
	// ErrInvalidReservedByte is returned when memory.size/memory.grow's reserved byte isn't
	// 0x00.
	ErrInvalidReservedByte = errors.New("binary: reserved byte must be 0x00")
)

// SectionID identifies one of the twelve top-level module sections plus the custom section.
type SectionID byte

const (
	SectionCustom    SectionID = 0
	SectionType      SectionID = 1
	SectionImport    SectionID = 2
	SectionFunction  SectionID = 3
	SectionTable     SectionID = 4
	SectionMemory    SectionID = 5
	SectionGlobal    SectionID = 6
	SectionExport    SectionID = 7
	SectionStart     SectionID = 8
	SectionElement   SectionID = 9
	SectionCode      SectionID = 10
	SectionData      SectionID = 11
	SectionDataCount SectionID = 12
)

type decoder struct {
	buf []byte
}

// DecodeModule decodes a complete WebAssembly binary module.
func DecodeModule(data []byte) (*wasm.Module, error) {
	d := &decoder{buf: data}
	if err := d.checkMagic(); err != nil {
		return nil, err
	}
	if err := d.checkVersion(); err != nil {
		return nil, err
	}

	m := &wasm.Module{}
	var importFuncCount int
	for len(d.buf) > 0 {
		id, body, err := d.consumeSection()
		if err != nil {
			return nil, err
		}
		sd := &decoder{buf: body}
		switch id {
		case SectionType:
			if err := sd.parseTypeSection(m); err != nil {
				return nil, err
			}
		case SectionImport:
			n, err := sd.parseImportSection(m)
			if err != nil {
				return nil, err
			}
			importFuncCount = n
		case SectionFunction:
			if err := sd.parseFunctionSection(m); err != nil {
				return nil, err
			}
		case SectionTable, SectionMemory, SectionGlobal, SectionExport, SectionElement, SectionData:
			// Consumed for completeness; contents aren't needed by any analysis here.
		case SectionCode:
			if err := sd.parseCodeSection(m, importFuncCount); err != nil {
				return nil, err
			}
		case SectionStart, SectionDataCount, SectionCustom:
			// Skipped without inspection.
		default:
			return nil, fmt.Errorf("binary: unknown section id %d", id)
		}
	}
	return m, nil
}

func (d *decoder) checkMagic() error {
	if len(d.buf) < 4 || string(d.buf[:4]) != string(magic) {
		return ErrInvalidMagicNumber
	}
	d.buf = d.buf[4:]
	return nil
}

func (d *decoder) checkVersion() error {
	if len(d.buf) < 4 || string(d.buf[:4]) != string(version) {
		return ErrInvalidVersion
	}
	d.buf = d.buf[4:]
	return nil
}

func (d *decoder) consumeByte() (byte, error) {
	if len(d.buf) == 0 {
		return 0, ErrEmptyBinary
	}
	b := d.buf[0]
	d.buf = d.buf[1:]
	return b, nil
}

func (d *decoder) consumeBytes(n uint32) ([]byte, error) {
	if uint32(len(d.buf)) < n {
		return nil, ErrEmptyBinary
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b, nil
}

func (d *decoder) consumeU32() (uint32, error) {
	v, n, err := leb128.LoadUint32(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) consumeI32() (int32, error) {
	v, n, err := leb128.LoadInt32(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) consumeI64() (int64, error) {
	v, n, err := leb128.LoadInt64(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) consumeF32() (float32, error) {
	b, err := d.consumeBytes(4)
	if err != nil {
		return 0, err
	}
	return le32ToFloat(b), nil
}

func (d *decoder) consumeF64() (float64, error) {
	b, err := d.consumeBytes(8)
	if err != nil {
		return 0, err
	}
	return le64ToFloat(b), nil
}

func (d *decoder) consumeName() (string, error) {
	n, err := d.consumeU32()
	if err != nil {
		return "", err
	}
	b, err := d.consumeBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) consumeSection() (SectionID, []byte, error) {
	idByte, err := d.consumeByte()
	if err != nil {
		return 0, nil, err
	}
	size, err := d.consumeU32()
	if err != nil {
		return 0, nil, err
	}
	body, err := d.consumeBytes(size)
	if err != nil {
		return 0, nil, err
	}
	return SectionID(idByte), body, nil
}

func (d *decoder) consumeRefType() (api.ValueType, error) {
	b, err := d.consumeByte()
	if err != nil {
		return 0, err
	}
	if b != api.ValueTypeFuncref && b != api.ValueTypeExternref {
		return 0, fmt.Errorf("binary: invalid reference type %#x", b)
	}
	return b, nil
}

func (d *decoder) consumeValType() (api.ValueType, error) {
	b, err := d.consumeByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64,
		api.ValueTypeV128, api.ValueTypeFuncref, api.ValueTypeExternref:
		return b, nil
	}
	return 0, fmt.Errorf("binary: invalid value type %#x", b)
}

func (d *decoder) consumeResultType() ([]api.ValueType, error) {
	n, err := d.consumeU32()
	if err != nil {
		return nil, err
	}
	types := make([]api.ValueType, n)
	for i := range types {
		t, err := d.consumeValType()
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func (d *decoder) consumeFuncType() (*wasm.FunctionType, error) {
	b, err := d.consumeByte()
	if err != nil {
		return nil, err
	}
	if b != 0x60 {
		return nil, fmt.Errorf("binary: function type must start with 0x60, got %#x", b)
	}
	params, err := d.consumeResultType()
	if err != nil {
		return nil, err
	}
	results, err := d.consumeResultType()
	if err != nil {
		return nil, err
	}
	return &wasm.FunctionType{Params: params, Results: results}, nil
}

func (d *decoder) consumeLimit() (wasm.Limit, error) {
	kind, err := d.consumeByte()
	if err != nil {
		return wasm.Limit{}, err
	}
	min, err := d.consumeU32()
	if err != nil {
		return wasm.Limit{}, err
	}
	switch kind {
	case 0:
		return wasm.Limit{Min: min}, nil
	case 1:
		max, err := d.consumeU32()
		if err != nil {
			return wasm.Limit{}, err
		}
		return wasm.Limit{Min: min, Max: &max}, nil
	}
	return wasm.Limit{}, fmt.Errorf("binary: invalid limit kind %d", kind)
}

// consumeTableType consumes and discards a table type (reference type + limit).
func (d *decoder) consumeTableType() error {
	if _, err := d.consumeRefType(); err != nil {
		return err
	}
	_, err := d.consumeLimit()
	return err
}

// consumeMemType consumes and discards a memory type (a limit).
func (d *decoder) consumeMemType() error {
	_, err := d.consumeLimit()
	return err
}

func (d *decoder) consumeGlobalType() (wasm.Global, error) {
	t, err := d.consumeValType()
	if err != nil {
		return wasm.Global{}, err
	}
	mutByte, err := d.consumeByte()
	if err != nil {
		return wasm.Global{}, err
	}
	if mutByte > 1 {
		return wasm.Global{}, fmt.Errorf("binary: invalid global mutability %#x", mutByte)
	}
	return wasm.Global{Type: t, Mutable: mutByte == 1}, nil
}

func (d *decoder) parseTypeSection(m *wasm.Module) error {
	n, err := d.consumeU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		ft, err := d.consumeFuncType()
		if err != nil {
			return err
		}
		m.FunctionTypes = append(m.FunctionTypes, ft)
	}
	return nil
}

// parseImportSection consumes every import. Function imports are appended to the function
// index space (type only, no body); table/memory/global imports are discarded after being
// read, since nothing downstream needs them. It returns the number of imported functions so
// the code section can validate alignment against the function section.
func (d *decoder) parseImportSection(m *wasm.Module) (int, error) {
	n, err := d.consumeU32()
	if err != nil {
		return 0, err
	}
	importFuncCount := 0
	for i := uint32(0); i < n; i++ {
		if _, err := d.consumeName(); err != nil { // module name
			return 0, err
		}
		if _, err := d.consumeName(); err != nil { // field name
			return 0, err
		}
		kind, err := d.consumeByte()
		if err != nil {
			return 0, err
		}
		switch kind {
		case api.ExternTypeFunc:
			idx, err := d.consumeU32()
			if err != nil {
				return 0, err
			}
			if int(idx) >= len(m.FunctionTypes) {
				return 0, fmt.Errorf("binary: import function type index %d out of range", idx)
			}
			m.Functions = append(m.Functions, &wasm.Function{Type: m.FunctionTypes[idx], IsImport: true})
			importFuncCount++
		case api.ExternTypeTable:
			if err := d.consumeTableType(); err != nil {
				return 0, err
			}
		case api.ExternTypeMemory:
			if err := d.consumeMemType(); err != nil {
				return 0, err
			}
		case api.ExternTypeGlobal:
			if _, err := d.consumeGlobalType(); err != nil {
				return 0, err
			}
		default:
			return 0, fmt.Errorf("binary: invalid import descriptor kind %#x", kind)
		}
	}
	return importFuncCount, nil
}

func (d *decoder) parseFunctionSection(m *wasm.Module) error {
	n, err := d.consumeU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		idx, err := d.consumeU32()
		if err != nil {
			return err
		}
		if int(idx) >= len(m.FunctionTypes) {
			return fmt.Errorf("binary: function type index %d out of range", idx)
		}
		m.Functions = append(m.Functions, &wasm.Function{Type: m.FunctionTypes[idx]})
	}
	return nil
}

func (d *decoder) parseCodeSection(m *wasm.Module, importFuncCount int) error {
	n, err := d.consumeU32()
	if err != nil {
		return err
	}
	if importFuncCount+int(n) != len(m.Functions) {
		return fmt.Errorf("binary: code section has %d entries, want %d", n, len(m.Functions)-importFuncCount)
	}
	for i := uint32(0); i < n; i++ {
		size, err := d.consumeU32()
		if err != nil {
			return err
		}
		body, err := d.consumeBytes(size)
		if err != nil {
			return err
		}
		cd := &decoder{buf: body}
		instrs, err := cd.consumeCode(m)
		if err != nil {
			return err
		}
		m.Functions[importFuncCount+int(i)].Instrs = instrs
	}
	return nil
}

// consumeCode decodes one function body: a vector of (count, type) local declarations
// followed by the instruction stream, which must end with an explicit End opcode.
func (d *decoder) consumeCode(m *wasm.Module) ([]*wasm.Instr, error) {
	localGroups, err := d.consumeU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < localGroups; i++ {
		if _, err := d.consumeU32(); err != nil { // count
			return nil, err
		}
		if _, err := d.consumeValType(); err != nil { // type
			return nil, err
		}
	}

	var instrs []*wasm.Instr
	for len(d.buf) > 0 {
		instr, err := d.consumeInstr(m)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, instr)
	}
	if len(instrs) == 0 || instrs[len(instrs)-1].Code != wasm.End {
		return nil, ErrCodeMissingEnd
	}
	return instrs, nil
}

// consumeBlockType decodes the type annotation of a Block/Loop/If instruction: 0x40 for the
// empty type, a single value type byte for a single-result type, or a signed 33-bit LEB
// index into the type section for a full (possibly multi-value) function type.
func (d *decoder) consumeBlockType(m *wasm.Module) (*wasm.FunctionType, error) {
	if len(d.buf) == 0 {
		return nil, ErrEmptyBinary
	}
	peek := d.buf[0]
	if peek == 0x40 {
		d.buf = d.buf[1:]
		return &wasm.FunctionType{}, nil
	}
	switch peek {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64,
		api.ValueTypeV128, api.ValueTypeFuncref, api.ValueTypeExternref:
		d.buf = d.buf[1:]
		return &wasm.FunctionType{Results: []api.ValueType{peek}}, nil
	}
	idx, err := decodeSignedIndex33(d)
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(m.FunctionTypes) {
		return nil, fmt.Errorf("binary: block type index %d out of range", idx)
	}
	return m.FunctionTypes[idx], nil
}

func decodeSignedIndex33(d *decoder) (int64, error) {
	v, n, err := leb128FromDecoder(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}
