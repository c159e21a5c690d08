package binary

import (
	"fmt"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// consumeInstr decodes a single instruction, including its 0xFC-prefixed saturating
// truncation sub-opcode if present. m is needed to resolve block type indices.
func (d *decoder) consumeInstr(m *wasm.Module) (*wasm.Instr, error) {
	opByte, err := d.consumeByte()
	if err != nil {
		return nil, err
	}
	code := wasm.InstrCode(opByte)
	if opByte == wasm.SaturatingTruncationPrefix {
		sub, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		code = wasm.InstrCode(wasm.SaturatingTruncationPrefix<<8) + wasm.InstrCode(sub)
	}

	instr := &wasm.Instr{Code: code}
	switch code {
	case wasm.Block, wasm.Loop, wasm.If:
		bt, err := d.consumeBlockType(m)
		if err != nil {
			return nil, err
		}
		instr.BlockType = bt
		instr.HasBlockType = true

	case wasm.Br, wasm.BrIf:
		idx, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		instr.Index = idx

	case wasm.BrTable:
		n, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		indexes := make([]uint32, 0, n+1)
		for i := uint32(0); i < n; i++ {
			idx, err := d.consumeU32()
			if err != nil {
				return nil, err
			}
			indexes = append(indexes, idx)
		}
		def, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, def)
		instr.Indexes = indexes

	case wasm.Call:
		idx, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		instr.Index = idx

	case wasm.CallIndirect:
		typeIdx, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		tableIdx, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		instr.Index = typeIdx
		instr.TableIndex = tableIdx

	case wasm.LocalGet, wasm.LocalSet, wasm.LocalTee, wasm.GlobalGet, wasm.GlobalSet:
		idx, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		instr.Index = idx

	case wasm.I32Load, wasm.I64Load, wasm.F32Load, wasm.F64Load,
		wasm.I32Load8S, wasm.I32Load8U, wasm.I32Load16S, wasm.I32Load16U,
		wasm.I64Load8S, wasm.I64Load8U, wasm.I64Load16S, wasm.I64Load16U,
		wasm.I64Load32S, wasm.I64Load32U,
		wasm.I32Store, wasm.I64Store, wasm.F32Store, wasm.F64Store,
		wasm.I32Store8, wasm.I32Store16, wasm.I64Store8, wasm.I64Store16, wasm.I64Store32:
		align, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		offset, err := d.consumeU32()
		if err != nil {
			return nil, err
		}
		instr.Mem = wasm.MemArg{Align: align, Offset: offset}

	case wasm.MemorySize, wasm.MemoryGrow:
		b, err := d.consumeByte()
		if err != nil {
			return nil, err
		}
		if b != 0x00 {
			return nil, fmt.Errorf("%w: got %#x", ErrInvalidReservedByte, b)
		}

	case wasm.I32Const:
		v, err := d.consumeI32()
		if err != nil {
			return nil, err
		}
		instr.I32Value = v

	case wasm.I64Const:
		v, err := d.consumeI64()
		if err != nil {
			return nil, err
		}
		instr.I64Value = v

	case wasm.F32Const:
		v, err := d.consumeF32()
		if err != nil {
			return nil, err
		}
		instr.F32Value = v

	case wasm.F64Const:
		v, err := d.consumeF64()
		if err != nil {
			return nil, err
		}
		instr.F64Value = v

	case wasm.Unreachable, wasm.Nop, wasm.Else, wasm.End, wasm.Return, wasm.Drop, wasm.Select,
		wasm.I32Eqz, wasm.I32Eq, wasm.I32Ne, wasm.I32LtS, wasm.I32LtU, wasm.I32GtS, wasm.I32GtU,
		wasm.I32LeS, wasm.I32LeU, wasm.I32GeS, wasm.I32GeU,
		wasm.I64Eqz, wasm.I64Eq, wasm.I64Ne, wasm.I64LtS, wasm.I64LtU, wasm.I64GtS, wasm.I64GtU,
		wasm.I64LeS, wasm.I64LeU, wasm.I64GeS, wasm.I64GeU,
		wasm.F32Eq, wasm.F32Ne, wasm.F32Lt, wasm.F32Gt, wasm.F32Le, wasm.F32Ge,
		wasm.F64Eq, wasm.F64Ne, wasm.F64Lt, wasm.F64Gt, wasm.F64Le, wasm.F64Ge,
		wasm.I32Clz, wasm.I32Ctz, wasm.I32Popcnt, wasm.I32Add, wasm.I32Sub, wasm.I32Mul,
		wasm.I32DivS, wasm.I32DivU, wasm.I32RemS, wasm.I32RemU, wasm.I32And, wasm.I32Or, wasm.I32Xor,
		wasm.I32Shl, wasm.I32ShrS, wasm.I32ShrU, wasm.I32Rotl, wasm.I32Rotr,
		wasm.I64Clz, wasm.I64Ctz, wasm.I64Popcnt, wasm.I64Add, wasm.I64Sub, wasm.I64Mul,
		wasm.I64DivS, wasm.I64DivU, wasm.I64RemS, wasm.I64RemU, wasm.I64And, wasm.I64Or, wasm.I64Xor,
		wasm.I64Shl, wasm.I64ShrS, wasm.I64ShrU, wasm.I64Rotl, wasm.I64Rotr,
		wasm.F32Abs, wasm.F32Neg, wasm.F32Ceil, wasm.F32Floor, wasm.F32Trunc, wasm.F32Nearest, wasm.F32Sqrt,
		wasm.F32Add, wasm.F32Sub, wasm.F32Mul, wasm.F32Div, wasm.F32Min, wasm.F32Max, wasm.F32Copysign,
		wasm.F64Abs, wasm.F64Neg, wasm.F64Ceil, wasm.F64Floor, wasm.F64Trunc, wasm.F64Nearest, wasm.F64Sqrt,
		wasm.F64Add, wasm.F64Sub, wasm.F64Mul, wasm.F64Div, wasm.F64Min, wasm.F64Max, wasm.F64Copysign,
		wasm.I32WrapI64, wasm.I32TruncF32S, wasm.I32TruncF32U, wasm.I32TruncF64S, wasm.I32TruncF64U,
		wasm.I64ExtendI32S, wasm.I64ExtendI32U, wasm.I64TruncF32S, wasm.I64TruncF32U,
		wasm.I64TruncF64S, wasm.I64TruncF64U,
		wasm.F32ConvertI32S, wasm.F32ConvertI32U, wasm.F32ConvertI64S, wasm.F32ConvertI64U, wasm.F32DemoteF64,
		wasm.F64ConvertI32S, wasm.F64ConvertI32U, wasm.F64ConvertI64S, wasm.F64ConvertI64U, wasm.F64PromoteF32,
		wasm.I32ReinterpretF32, wasm.I64ReinterpretF64, wasm.F32ReinterpretI32, wasm.F64ReinterpretI64,
		wasm.I32Extend8S, wasm.I32Extend16S, wasm.I64Extend8S, wasm.I64Extend16S, wasm.I64Extend32S,
		wasm.I32TruncSatF32S, wasm.I32TruncSatF32U, wasm.I32TruncSatF64S, wasm.I32TruncSatF64U,
		wasm.I64TruncSatF32S, wasm.I64TruncSatF32U, wasm.I64TruncSatF64S, wasm.I64TruncSatF64U:
		// No immediate payload.

	default:
		return nil, fmt.Errorf("binary: unknown instruction opcode %#x", opByte)
	}
	return instr, nil
}
