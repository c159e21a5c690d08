package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HerrCai0907/wasm-analyzer/internal/analyzer"
	"github.com/HerrCai0907/wasm-analyzer/internal/wasm/binary"
)

var (
	flagDomBuilder             bool
	flagExtendBasicBlockBuilder bool
	flagHighFrequencySubExpr   bool
	flagTreeHeightBalancing    bool

	flagFreqDepth int
	flagFreqNum   int

	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "wasm-analyzer [wasm file]",
	Short: "Static analyzer for WebAssembly modules",
	Long: `wasm-analyzer decodes a wasm binary, reconstructs a control-flow graph for each
defined function, and runs a pipeline of program analyses over it: dominator sets, extended
basic blocks, a sub-expression frequency census, and a tree-height-balancing rewrite of
expression trees.

Each analysis is opt-in via its own flag; with none set, only the CFG is built.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// Execute runs the root command. It is the only entrypoint main.go calls.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&flagDomBuilder, "DomBuilder", false, "run dominator analysis")
	rootCmd.Flags().BoolVar(&flagExtendBasicBlockBuilder, "ExtendBasicBlockBuilder", false, "run extended-basic-block partitioning")
	rootCmd.Flags().BoolVar(&flagHighFrequencySubExpr, "HighFrequencySubExpr", false, "run the sub-expression frequency census")
	rootCmd.Flags().BoolVar(&flagTreeHeightBalancing, "TreeHeightBalancing", false, "run tree-height balancing")

	rootCmd.Flags().IntVar(&flagFreqDepth, "HighFrequencySubExpr.depth", 0, "maximum sub-expression length (default 16)")
	rootCmd.Flags().IntVar(&flagFreqNum, "HighFrequencySubExpr.num", 0, "number of ranked entries to report (default 128)")

	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable verbose analysis tracing on stderr and CFG dumps on stdout")
}

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger(flagDebug)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("wasm-analyzer: reading %s: %w", args[0], err)
	}

	log.Debugf("decoding %s", args[0])
	module, err := binary.DecodeModule(data)
	if err != nil {
		red := color.New(color.FgRed)
		red.Fprintf(os.Stderr, "decode error: %v\n", err)
		return err
	}

	opts := analyzer.Options{
		RunDomBuilder:              flagDomBuilder,
		RunExtendBasicBlockBuilder: flagExtendBasicBlockBuilder,
		RunHighFrequencySubExpr:    flagHighFrequencySubExpr,
		RunTreeHeightBalancing:     flagTreeHeightBalancing,
		FreqDepth:                  flagFreqDepth,
		FreqTopK:                   flagFreqNum,
	}
	mgr := analyzer.NewManager(module, opts, log)

	results, err := mgr.Run()
	if err != nil {
		return fmt.Errorf("wasm-analyzer: %w", err)
	}

	for _, res := range results {
		fmt.Printf("function %d\n", res.Index)
		if flagDebug {
			res.Cfg.Dump(os.Stdout)
		}
		if res.Dominator != nil {
			dumpDominator(os.Stdout, res)
		}
		if res.ExtendedCfg != nil {
			dumpExtendedCfg(os.Stdout, res)
		}
		if res.TreeBalance != nil {
			res.TreeBalance.Dump(os.Stdout)
		}
	}

	if flagHighFrequencySubExpr {
		census, err := mgr.Census()
		if err != nil {
			return err
		}
		dumpCensus(os.Stdout, census)
	}

	return nil
}
