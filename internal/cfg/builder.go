package cfg

import (
	"errors"
	"fmt"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// ErrUnsupportedInstruction is returned when a function body contains an instruction the CFG
// reconstructor cannot turn into edges. br_table is the only MVP instruction in this
// category: its variable-length jump table is rejected outright rather than guessed at.
var ErrUnsupportedInstruction = errors.New("cfg: unsupported instruction")

// frame is one entry of the structured-control frame stack. Each kind of wasm block
// (function body, block, loop, if) resolves "branch to this frame's label" and "fall off the
// end of this frame" to possibly different target blocks.
type frame interface {
	brTarget() BlockID
	endTarget() BlockID
}

type funcFrame struct{ next BlockID }

func (f *funcFrame) brTarget() BlockID  { return f.next }
func (f *funcFrame) endTarget() BlockID { return f.next }

type blockFrame struct{ next BlockID }

func (f *blockFrame) brTarget() BlockID  { return f.next }
func (f *blockFrame) endTarget() BlockID { return f.next }

type loopFrame struct{ this, next BlockID }

func (f *loopFrame) brTarget() BlockID  { return f.this }
func (f *loopFrame) endTarget() BlockID { return f.next }

// ifFrame additionally tracks the block that held the `if` instruction itself (last), since
// an `if` with no `else` must still fall through from that block to the merge block.
type ifFrame struct{ last, next BlockID }

func (f *ifFrame) brTarget() BlockID  { return f.next }
func (f *ifFrame) endTarget() BlockID { return f.next }

// Build reconstructs the CFG for one function's instruction list.
func Build(fn *wasm.Function) (*Cfg, error) {
	c := newCfg()
	c.Blocks[EnterBlockIndex] = newBasicBlock(EnterBlockIndex)
	c.Blocks[ExitBlockIndex] = newBasicBlock(ExitBlockIndex)

	b := &builder{cfg: c, counter: int(ExitBlockIndex), current: EnterBlockIndex}
	b.push(&funcFrame{next: ExitBlockIndex})

	for _, instr := range fn.Instrs {
		if err := b.step(instr); err != nil {
			return nil, err
		}
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("cfg: frame stack not empty at end of function (%d left)", len(b.stack))
	}

	simplify(c)
	return c, nil
}

type builder struct {
	cfg     *Cfg
	counter int
	current BlockID
	stack   []frame
}

func (b *builder) push(f frame) { b.stack = append(b.stack, f) }

func (b *builder) top() frame { return b.stack[len(b.stack)-1] }

func (b *builder) pop() frame {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

func (b *builder) appendBlock() BlockID {
	b.counter++
	id := BlockID(b.counter)
	b.cfg.Blocks[id] = newBasicBlock(id)
	return id
}

func (b *builder) edge(from, to BlockID) {
	b.cfg.Blocks[from].addSuccessor(to)
}

func (b *builder) appendInstr(block BlockID, instr *wasm.Instr) {
	bb := b.cfg.Blocks[block]
	bb.Instrs = append(bb.Instrs, instr)
}

func (b *builder) step(instr *wasm.Instr) error {
	switch instr.Code {
	case wasm.Block:
		this := b.appendBlock()
		next := b.appendBlock()
		b.edge(b.current, this)
		b.push(&blockFrame{next: next})
		b.current = this

	case wasm.Loop:
		this := b.appendBlock()
		next := b.appendBlock()
		b.edge(b.current, this)
		b.push(&loopFrame{this: this, next: next})
		b.current = this

	case wasm.If:
		last := b.current
		then := b.appendBlock()
		next := b.appendBlock()
		b.edge(b.current, then)
		b.appendInstr(last, instr)
		b.push(&ifFrame{last: last, next: next})
		b.current = then

	case wasm.Else:
		ifF, ok := b.top().(*ifFrame)
		if !ok {
			return fmt.Errorf("cfg: else instruction without matching if frame")
		}
		elseBlock := b.appendBlock()
		b.edge(b.current, ifF.next) // then-branch fallthrough to the merge block
		b.edge(ifF.last, elseBlock)
		b.current = elseBlock

	case wasm.End:
		target := b.top().endTarget()
		b.edge(b.current, target)
		if ifF, ok := b.top().(*ifFrame); ok {
			// Covers the else-less case: the pre-if block must also reach the merge block.
			b.edge(ifF.last, target)
		}
		b.pop()
		b.current = target

	case wasm.Unreachable, wasm.Return:
		this := b.appendBlock()
		b.edge(b.current, b.stack[0].endTarget())
		b.appendInstr(b.current, instr)
		b.current = this

	case wasm.Br:
		next := b.appendBlock()
		target, err := b.labelTarget(instr.Index)
		if err != nil {
			return err
		}
		b.edge(b.current, target)
		b.appendInstr(b.current, instr)
		b.current = next

	case wasm.BrIf:
		next := b.appendBlock()
		target, err := b.labelTarget(instr.Index)
		if err != nil {
			return err
		}
		b.edge(b.current, next)
		b.edge(b.current, target)
		b.appendInstr(b.current, instr)
		b.current = next

	case wasm.BrTable:
		return fmt.Errorf("%w: br_table", ErrUnsupportedInstruction)

	default:
		b.appendInstr(b.current, instr)
	}
	return nil
}

func (b *builder) labelTarget(depth uint32) (BlockID, error) {
	idx := len(b.stack) - 1 - int(depth)
	if idx < 0 {
		return 0, fmt.Errorf("cfg: branch depth %d exceeds frame stack", depth)
	}
	return b.stack[idx].brTarget(), nil
}

// simplify repeatedly collapses blocks with no instructions and exactly one successor into
// that successor, to a fixed point. EnterBlockIndex is never collapsed, and ExitBlockIndex
// has no successors, so both reserved blocks survive.
func simplify(c *Cfg) {
	for collapseEmptySingleSuccessor(c) {
	}
}

func collapseEmptySingleSuccessor(c *Cfg) bool {
	replacements := map[BlockID]BlockID{}
	for id, b := range c.Blocks {
		if id != EnterBlockIndex && len(b.Instrs) == 0 && len(b.Successors) == 1 {
			for only := range b.Successors {
				replacements[id] = only
			}
		}
	}
	if len(replacements) == 0 {
		return false
	}
	resolve := func(id BlockID) BlockID {
		for {
			next, ok := replacements[id]
			if !ok || next == id {
				return id
			}
			id = next
		}
	}
	for id, b := range c.Blocks {
		if _, replaced := replacements[id]; replaced {
			continue
		}
		newSuccs := map[BlockID]struct{}{}
		for s := range b.Successors {
			newSuccs[resolve(s)] = struct{}{}
		}
		b.Successors = newSuccs
	}
	for id := range replacements {
		delete(c.Blocks, id)
	}
	c.predMap = nil
	return true
}
