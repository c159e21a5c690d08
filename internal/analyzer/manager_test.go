package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

func instr(code wasm.InstrCode) *wasm.Instr { return &wasm.Instr{Code: code} }

func constInstr(v int32) *wasm.Instr { return &wasm.Instr{Code: wasm.I32Const, I32Value: v} }

// sumModule builds a single function summing two i32.const values, with no branching: a
// single basic block, one (trivial) extended basic block, and a two-leaf expression tree.
func sumModule() *wasm.Module {
	fn := &wasm.Function{
		Type: &wasm.FunctionType{},
		Instrs: []*wasm.Instr{
			constInstr(1),
			constInstr(2),
			instr(wasm.I32Add),
			instr(wasm.End),
		},
	}
	return &wasm.Module{Functions: []*wasm.Function{fn}}
}

func TestManager_RunBuildsCfgForEveryFunction(t *testing.T) {
	m := NewManager(sumModule(), Options{}, nil)
	results, err := m.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Cfg)
	require.Nil(t, results[0].Dominator)
	require.Nil(t, results[0].ExtendedCfg)
	require.Nil(t, results[0].TreeBalance)
}

func TestManager_RunHonorsOptions(t *testing.T) {
	m := NewManager(sumModule(), Options{
		RunDomBuilder:              true,
		RunExtendBasicBlockBuilder: true,
		RunTreeHeightBalancing:     true,
		RunHighFrequencySubExpr:    true,
	}, nil)
	results, err := m.Run()
	require.NoError(t, err)
	require.NotNil(t, results[0].Dominator)
	require.NotNil(t, results[0].ExtendedCfg)
	require.NotNil(t, results[0].TreeBalance)

	census, err := m.Census()
	require.NoError(t, err)
	require.Greater(t, census.TotalInstrs, 0)
}

func TestManager_CfgOfIsMemoized(t *testing.T) {
	m := NewManager(sumModule(), Options{}, nil)
	fn := m.Module.DefinedFunctions()[0]
	c1, err := m.CfgOf(fn)
	require.NoError(t, err)
	c2, err := m.CfgOf(fn)
	require.NoError(t, err)
	require.Same(t, c1, c2)
}
