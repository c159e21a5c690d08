// Package wasm holds the decoded representation of a WebAssembly module: its function
// types, functions, and their instructions, along with the instruction opcode table used
// by every downstream analysis.
package wasm

import (
	"fmt"
	"strings"

	"github.com/HerrCai0907/wasm-analyzer/api"
)

// Limit describes the size constraints of a table or memory.
type Limit struct {
	Min uint32
	Max *uint32 // nil when the optional maximum was absent.
}

// Global describes the shape of a global variable. Globals are decoded for completeness of
// the binary format but are otherwise unused by every analysis in this repository.
type Global struct {
	Type    api.ValueType
	Mutable bool
}

// FunctionType is a function signature: zero or more parameter types and zero or more
// result types.
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (t *FunctionType) String() string {
	return fmt.Sprintf("(%s) -> (%s)", joinTypes(t.Params), joinTypes(t.Results))
}

func joinTypes(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

// Function is a function in the function index space: either imported (no body) or defined
// locally in the code section (Instrs populated after decoding).
type Function struct {
	Type     *FunctionType
	IsImport bool
	IsExport bool
	Instrs   []*Instr
}

// Module is the decoded static view of a WebAssembly binary: its function type table and
// its function index space. Table, memory, global, element, and data sections are consumed
// from the wire format to stay byte-aligned with the rest of the module, but their contents
// are intentionally discarded — no analysis in this repository inspects linear memory,
// tables, or initializer expressions.
type Module struct {
	FunctionTypes []*FunctionType
	Functions     []*Function
}

// DefinedFunctions returns the Functions that are not imports, i.e. the ones with a body to
// analyze.
func (m *Module) DefinedFunctions() []*Function {
	defined := make([]*Function, 0, len(m.Functions))
	for _, f := range m.Functions {
		if !f.IsImport {
			defined = append(defined, f)
		}
	}
	return defined
}
