// Package analyzer wires together the CFG, dominator, extended-basic-block, frequency-census,
// and tree-height-balancing analyses into a single pipeline over a decoded module, running
// each at most once.
package analyzer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/HerrCai0907/wasm-analyzer/internal/cfg"
	"github.com/HerrCai0907/wasm-analyzer/internal/dominator"
	"github.com/HerrCai0907/wasm-analyzer/internal/ebb"
	"github.com/HerrCai0907/wasm-analyzer/internal/freq"
	"github.com/HerrCai0907/wasm-analyzer/internal/treebalance"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm"
)

// FunctionResult holds every per-function analysis result computed so far. Fields are nil
// until the corresponding analysis has run.
type FunctionResult struct {
	Index    int // position within Module.DefinedFunctions()
	Function *wasm.Function

	Cfg         *cfg.Cfg
	Dominator   *dominator.Result
	ExtendedCfg *ebb.ExtendedCfg
	TreeBalance *treebalance.Report
}

// Options selects which analyses Manager.Run executes and tunes the frequency census.
type Options struct {
	RunDomBuilder             bool
	RunExtendBasicBlockBuilder bool
	RunHighFrequencySubExpr   bool
	RunTreeHeightBalancing    bool

	FreqDepth int
	FreqTopK  int

	// TreeNodeOpcodes overrides treebalance.DefaultTreeNodeOpcodes when non-nil.
	TreeNodeOpcodes map[wasm.InstrCode]bool
}

// Manager runs the analysis pipeline over a Module, memoizing each analysis so that running
// a dependent analysis twice (e.g. two functions both needing dominator sets) never redoes
// CFG construction for a function it already built. Each analysis method declares its
// dependencies by calling the methods it needs before doing its own work, mirroring how a
// dependency DAG would be expressed as explicit nodes; since Go gives us ordinary function
// calls, that is the DAG.
type Manager struct {
	Module *wasm.Module
	Opts   Options

	// Log receives progress/diagnostic lines (analysis start/finish, dependency resolution
	// order). It is never used for the stable report output spec'd for each analysis'
	// Dump method, only for --debug tracing. A nil Log is replaced with a logger that
	// discards output.
	Log *logrus.Logger

	cfgs   map[*wasm.Function]*cfg.Cfg
	doms   map[*wasm.Function]*dominator.Result
	ebbs   map[*wasm.Function]*ebb.ExtendedCfg
	trees  map[*wasm.Function]*treebalance.Report
	census *freq.Report
}

// NewManager returns a Manager ready to analyze m according to opts. log may be nil, in which
// case progress logging is discarded.
func NewManager(m *wasm.Module, opts Options, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
		log.SetOutput(ioDiscard{})
	}
	return &Manager{
		Module: m,
		Opts:   opts,
		Log:    log,
		cfgs:   map[*wasm.Function]*cfg.Cfg{},
		doms:   map[*wasm.Function]*dominator.Result{},
		ebbs:   map[*wasm.Function]*ebb.ExtendedCfg{},
		trees:  map[*wasm.Function]*treebalance.Report{},
	}
}

// CfgOf returns fn's Cfg, building it on first use. Every other analysis depends on this one.
func (m *Manager) CfgOf(fn *wasm.Function) (*cfg.Cfg, error) {
	if c, ok := m.cfgs[fn]; ok {
		return c, nil
	}
	m.Log.Debug("running BasicBlockBuilder")
	c, err := cfg.Build(fn)
	if err != nil {
		return nil, fmt.Errorf("analyzer: building cfg: %w", err)
	}
	m.cfgs[fn] = c
	return c, nil
}

// DominatorOf returns fn's dominator sets, computing its Cfg first if needed.
func (m *Manager) DominatorOf(fn *wasm.Function) (*dominator.Result, error) {
	if d, ok := m.doms[fn]; ok {
		return d, nil
	}
	c, err := m.CfgOf(fn)
	if err != nil {
		return nil, err
	}
	m.Log.Debug("running DomBuilder")
	d := dominator.Compute(c)
	m.doms[fn] = d
	return d, nil
}

// ExtendedCfgOf returns fn's extended-basic-block partition, computing its Cfg first if
// needed.
func (m *Manager) ExtendedCfgOf(fn *wasm.Function) (*ebb.ExtendedCfg, error) {
	if e, ok := m.ebbs[fn]; ok {
		return e, nil
	}
	c, err := m.CfgOf(fn)
	if err != nil {
		return nil, err
	}
	m.Log.Debug("running ExtendBasicBlockBuilder")
	e := ebb.Build(c)
	m.ebbs[fn] = e
	return e, nil
}

// TreeBalanceOf returns fn's tree-height-balancing report, computing its Cfg first if needed.
func (m *Manager) TreeBalanceOf(fn *wasm.Function) (*treebalance.Report, error) {
	if r, ok := m.trees[fn]; ok {
		return r, nil
	}
	c, err := m.CfgOf(fn)
	if err != nil {
		return nil, err
	}
	m.Log.Debug("running TreeHeightBalancing")
	r := treebalance.Run(c, m.Opts.TreeNodeOpcodes)
	m.trees[fn] = r
	return r, nil
}

type ioDiscard struct{}

func (ioDiscard) Write(p []byte) (int, error) { return len(p), nil }

// Census returns the module-wide sub-expression frequency report, building every function's
// Cfg first if needed. It is computed once for the whole module, not per function, since the
// census ranks sub-expressions across all basic blocks together.
func (m *Manager) Census() (*freq.Report, error) {
	if m.census != nil {
		return m.census, nil
	}
	cfgs := make([]*cfg.Cfg, 0, len(m.Module.DefinedFunctions()))
	for _, fn := range m.Module.DefinedFunctions() {
		c, err := m.CfgOf(fn)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, c)
	}
	depth, topK := m.Opts.FreqDepth, m.Opts.FreqTopK
	if depth <= 0 {
		depth = freq.DefaultDepth
	}
	if topK <= 0 {
		topK = freq.DefaultStatisticNum
	}
	m.Log.Debug("running HighFrequencySubExpr")
	report, err := freq.Run(cfgs, depth, topK)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	m.census = report
	return m.census, nil
}

// Run executes every analysis enabled in m.Opts over every defined function, returning one
// FunctionResult per function in declaration order.
func (m *Manager) Run() ([]*FunctionResult, error) {
	fns := m.Module.DefinedFunctions()
	results := make([]*FunctionResult, 0, len(fns))
	for idx, fn := range fns {
		res := &FunctionResult{Index: idx, Function: fn}

		c, err := m.CfgOf(fn)
		if err != nil {
			return nil, err
		}
		res.Cfg = c

		if m.Opts.RunDomBuilder {
			d, err := m.DominatorOf(fn)
			if err != nil {
				return nil, err
			}
			res.Dominator = d
		}
		if m.Opts.RunExtendBasicBlockBuilder {
			e, err := m.ExtendedCfgOf(fn)
			if err != nil {
				return nil, err
			}
			res.ExtendedCfg = e
		}
		if m.Opts.RunTreeHeightBalancing {
			t, err := m.TreeBalanceOf(fn)
			if err != nil {
				return nil, err
			}
			res.TreeBalance = t
		}

		results = append(results, res)
	}

	if m.Opts.RunHighFrequencySubExpr {
		if _, err := m.Census(); err != nil {
			return nil, err
		}
	}

	return results, nil
}
