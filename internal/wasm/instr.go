package wasm

import "fmt"

// InstrCode identifies a WebAssembly instruction opcode. Saturating-truncation opcodes
// (prefixed by 0xFC in the binary format) are folded into one space by shifting the prefix
// byte left by 8 bits and adding the sub-opcode, so they never collide with the single-byte
// opcode space below.
type InstrCode uint16

// SaturatingTruncationPrefix is the single-byte opcode that introduces the extended
// 0xFC-prefixed instruction family.
const SaturatingTruncationPrefix = 0xFC

const (
	Unreachable InstrCode = 0x00
	Nop         InstrCode = 0x01
	Block       InstrCode = 0x02
	Loop        InstrCode = 0x03
	If          InstrCode = 0x04
	Else        InstrCode = 0x05
	End         InstrCode = 0x0B
	Br          InstrCode = 0x0C
	BrIf        InstrCode = 0x0D
	BrTable     InstrCode = 0x0E
	Return      InstrCode = 0x0F
	Call        InstrCode = 0x10
	CallIndirect InstrCode = 0x11

	Drop   InstrCode = 0x1A
	Select InstrCode = 0x1B

	LocalGet  InstrCode = 0x20
	LocalSet  InstrCode = 0x21
	LocalTee  InstrCode = 0x22
	GlobalGet InstrCode = 0x23
	GlobalSet InstrCode = 0x24

	I32Load    InstrCode = 0x28
	I64Load    InstrCode = 0x29
	F32Load    InstrCode = 0x2A
	F64Load    InstrCode = 0x2B
	I32Load8S  InstrCode = 0x2C
	I32Load8U  InstrCode = 0x2D
	I32Load16S InstrCode = 0x2E
	I32Load16U InstrCode = 0x2F
	I64Load8S  InstrCode = 0x30
	I64Load8U  InstrCode = 0x31
	I64Load16S InstrCode = 0x32
	I64Load16U InstrCode = 0x33
	I64Load32S InstrCode = 0x34
	I64Load32U InstrCode = 0x35
	I32Store   InstrCode = 0x36
	I64Store   InstrCode = 0x37
	F32Store   InstrCode = 0x38
	F64Store   InstrCode = 0x39
	I32Store8  InstrCode = 0x3A
	I32Store16 InstrCode = 0x3B
	I64Store8  InstrCode = 0x3C
	I64Store16 InstrCode = 0x3D
	I64Store32 InstrCode = 0x3E
	MemorySize InstrCode = 0x3F
	MemoryGrow InstrCode = 0x40

	I32Const InstrCode = 0x41
	I64Const InstrCode = 0x42
	F32Const InstrCode = 0x43
	F64Const InstrCode = 0x44

	I32Eqz InstrCode = 0x45
	I32Eq  InstrCode = 0x46
	I32Ne  InstrCode = 0x47
	I32LtS InstrCode = 0x48
	I32LtU InstrCode = 0x49
	I32GtS InstrCode = 0x4A
	I32GtU InstrCode = 0x4B
	I32LeS InstrCode = 0x4C
	I32LeU InstrCode = 0x4D
	I32GeS InstrCode = 0x4E
	I32GeU InstrCode = 0x4F

	I64Eqz InstrCode = 0x50
	I64Eq  InstrCode = 0x51
	I64Ne  InstrCode = 0x52
	I64LtS InstrCode = 0x53
	I64LtU InstrCode = 0x54
	I64GtS InstrCode = 0x55
	I64GtU InstrCode = 0x56
	I64LeS InstrCode = 0x57
	I64LeU InstrCode = 0x58
	I64GeS InstrCode = 0x59
	I64GeU InstrCode = 0x5A

	F32Eq InstrCode = 0x5B
	F32Ne InstrCode = 0x5C
	F32Lt InstrCode = 0x5D
	F32Gt InstrCode = 0x5E
	F32Le InstrCode = 0x5F
	F32Ge InstrCode = 0x60

	F64Eq InstrCode = 0x61
	F64Ne InstrCode = 0x62
	F64Lt InstrCode = 0x63
	F64Gt InstrCode = 0x64
	F64Le InstrCode = 0x65
	F64Ge InstrCode = 0x66

	I32Clz    InstrCode = 0x67
	I32Ctz    InstrCode = 0x68
	I32Popcnt InstrCode = 0x69
	I32Add    InstrCode = 0x6A
	I32Sub    InstrCode = 0x6B
	I32Mul    InstrCode = 0x6C
	I32DivS   InstrCode = 0x6D
	I32DivU   InstrCode = 0x6E
	I32RemS   InstrCode = 0x6F
	I32RemU   InstrCode = 0x70
	I32And    InstrCode = 0x71
	I32Or     InstrCode = 0x72
	I32Xor    InstrCode = 0x73
	I32Shl    InstrCode = 0x74
	I32ShrS   InstrCode = 0x75
	I32ShrU   InstrCode = 0x76
	I32Rotl   InstrCode = 0x77
	I32Rotr   InstrCode = 0x78

	I64Clz    InstrCode = 0x79
	I64Ctz    InstrCode = 0x7A
	I64Popcnt InstrCode = 0x7B
	I64Add    InstrCode = 0x7C
	I64Sub    InstrCode = 0x7D
	I64Mul    InstrCode = 0x7E
	I64DivS   InstrCode = 0x7F
	I64DivU   InstrCode = 0x80
	I64RemS   InstrCode = 0x81
	I64RemU   InstrCode = 0x82
	I64And    InstrCode = 0x83
	I64Or     InstrCode = 0x84
	I64Xor    InstrCode = 0x85
	I64Shl    InstrCode = 0x86
	I64ShrS   InstrCode = 0x87
	I64ShrU   InstrCode = 0x88
	I64Rotl   InstrCode = 0x89
	I64Rotr   InstrCode = 0x8A

	F32Abs      InstrCode = 0x8B
	F32Neg      InstrCode = 0x8C
	F32Ceil     InstrCode = 0x8D
	F32Floor    InstrCode = 0x8E
	F32Trunc    InstrCode = 0x8F
	F32Nearest  InstrCode = 0x90
	F32Sqrt     InstrCode = 0x91
	F32Add      InstrCode = 0x92
	F32Sub      InstrCode = 0x93
	F32Mul      InstrCode = 0x94
	F32Div      InstrCode = 0x95
	F32Min      InstrCode = 0x96
	F32Max      InstrCode = 0x97
	F32Copysign InstrCode = 0x98

	F64Abs      InstrCode = 0x99
	F64Neg      InstrCode = 0x9A
	F64Ceil     InstrCode = 0x9B
	F64Floor    InstrCode = 0x9C
	F64Trunc    InstrCode = 0x9D
	F64Nearest  InstrCode = 0x9E
	F64Sqrt     InstrCode = 0x9F
	F64Add      InstrCode = 0xA0
	F64Sub      InstrCode = 0xA1
	F64Mul      InstrCode = 0xA2
	F64Div      InstrCode = 0xA3
	F64Min      InstrCode = 0xA4
	F64Max      InstrCode = 0xA5
	F64Copysign InstrCode = 0xA6

	I32WrapI64        InstrCode = 0xA7
	I32TruncF32S      InstrCode = 0xA8
	I32TruncF32U      InstrCode = 0xA9
	I32TruncF64S      InstrCode = 0xAA
	I32TruncF64U      InstrCode = 0xAB
	I64ExtendI32S     InstrCode = 0xAC
	I64ExtendI32U     InstrCode = 0xAD
	I64TruncF32S      InstrCode = 0xAE
	I64TruncF32U      InstrCode = 0xAF
	I64TruncF64S      InstrCode = 0xB0
	I64TruncF64U      InstrCode = 0xB1
	F32ConvertI32S    InstrCode = 0xB2
	F32ConvertI32U    InstrCode = 0xB3
	F32ConvertI64S    InstrCode = 0xB4
	F32ConvertI64U    InstrCode = 0xB5
	F32DemoteF64      InstrCode = 0xB6
	F64ConvertI32S    InstrCode = 0xB7
	F64ConvertI32U    InstrCode = 0xB8
	F64ConvertI64S    InstrCode = 0xB9
	F64ConvertI64U    InstrCode = 0xBA
	F64PromoteF32     InstrCode = 0xBB
	I32ReinterpretF32 InstrCode = 0xBC
	I64ReinterpretF64 InstrCode = 0xBD
	F32ReinterpretI32 InstrCode = 0xBE
	F64ReinterpretI64 InstrCode = 0xBF

	I32Extend8S  InstrCode = 0xC0
	I32Extend16S InstrCode = 0xC1
	I64Extend8S  InstrCode = 0xC2
	I64Extend16S InstrCode = 0xC3
	I64Extend32S InstrCode = 0xC4

	// Saturating truncation family: (SaturatingTruncationPrefix << 8) + sub-opcode.
	I32TruncSatF32S InstrCode = (SaturatingTruncationPrefix << 8) + 0
	I32TruncSatF32U InstrCode = (SaturatingTruncationPrefix << 8) + 1
	I32TruncSatF64S InstrCode = (SaturatingTruncationPrefix << 8) + 2
	I32TruncSatF64U InstrCode = (SaturatingTruncationPrefix << 8) + 3
	I64TruncSatF32S InstrCode = (SaturatingTruncationPrefix << 8) + 4
	I64TruncSatF32U InstrCode = (SaturatingTruncationPrefix << 8) + 5
	I64TruncSatF64S InstrCode = (SaturatingTruncationPrefix << 8) + 6
	I64TruncSatF64U InstrCode = (SaturatingTruncationPrefix << 8) + 7
)

// MemArg is the alignment/offset pair carried by every load and store instruction.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instr is a single decoded instruction. Exactly one of the payload fields is meaningful,
// selected by Code; which one is documented per opcode group below.
type Instr struct {
	Code InstrCode

	// BlockType is set for Block, Loop, and If: a FunctionType with no params or results for
	// the empty block type, a fresh FunctionType with one result for a single value type, or
	// the shared Module.FunctionTypes entry for a type-index block type.
	BlockType   *FunctionType
	HasBlockType bool

	// Index is set for Br, BrIf, Call, LocalGet/Set/Tee, GlobalGet/Set, and as the type index
	// operand of CallIndirect.
	Index uint32

	// Indexes is set for BrTable: all label indices including the default, default last.
	Indexes []uint32

	// TableIndex is set for CallIndirect.
	TableIndex uint32

	// MemArg is set for every load/store instruction.
	Mem MemArg

	// I32Value/I64Value/F32Value/F64Value are set for the matching Const instruction.
	I32Value int32
	I64Value int64
	F32Value float32
	F64Value float64
}

// OperandCount returns how many values this instruction pops off the (conceptual)
// expression stack. It is defined for the constants, local/global accessors, drop, and the
// i32/i64 integer unary and binary operators listed in operandResultCount, which include
// every opcode of treebalance.DefaultTreeNodeOpcodes; any other opcode panics, mirroring
// the original analyzer's Todo{} behavior for operand/result accounting.
func (i *Instr) OperandCount() int {
	n, _, ok := operandResultCount(i.Code)
	if !ok {
		panic(fmt.Sprintf("wasm: OperandCount: unsupported opcode %s", i.Code))
	}
	return n
}

// ResultCount mirrors OperandCount but for values pushed.
func (i *Instr) ResultCount() int {
	_, n, ok := operandResultCount(i.Code)
	if !ok {
		panic(fmt.Sprintf("wasm: ResultCount: unsupported opcode %s", i.Code))
	}
	return n
}

func operandResultCount(c InstrCode) (operands, results int, ok bool) {
	switch c {
	case I32Const, I64Const, F32Const, F64Const, LocalGet, GlobalGet:
		return 0, 1, true
	case I32Add, I32Sub, I32Mul, I32DivS, I32DivU, I32RemS, I32RemU,
		I32And, I32Or, I32Xor, I32Shl, I32ShrS, I32ShrU, I32Rotl, I32Rotr,
		I64Add, I64Sub, I64Mul, I64DivS, I64DivU, I64RemS, I64RemU,
		I64And, I64Or, I64Xor, I64Shl, I64ShrS, I64ShrU, I64Rotl, I64Rotr:
		return 2, 1, true
	case I32Clz, I32Ctz, I32Popcnt, I32Eqz,
		I64Clz, I64Ctz, I64Popcnt, I64Eqz,
		LocalTee:
		return 1, 1, true
	case LocalSet, GlobalSet, Drop:
		return 1, 0, true
	}
	return 0, 0, false
}
