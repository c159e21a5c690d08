package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HerrCai0907/wasm-analyzer/internal/freq"
)

// minimalModule is magic + version with no sections: the smallest valid wasm binary.
var minimalModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func writeModule(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.wasm")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func resetFlags() {
	flagDomBuilder = false
	flagExtendBasicBlockBuilder = false
	flagHighFrequencySubExpr = false
	flagTreeHeightBalancing = false
	flagFreqDepth = 0
	flagFreqNum = 0
	flagDebug = false
}

func TestRunAnalyze_MinimalModuleSucceeds(t *testing.T) {
	resetFlags()
	path := writeModule(t, minimalModule)
	err := runAnalyze(rootCmd, []string{path})
	require.NoError(t, err)
}

func TestRunAnalyze_MissingFileFails(t *testing.T) {
	resetFlags()
	err := runAnalyze(rootCmd, []string{filepath.Join(t.TempDir(), "missing.wasm")})
	require.Error(t, err)
}

func TestRunAnalyze_InvalidMagicFails(t *testing.T) {
	resetFlags()
	path := writeModule(t, []byte{0x00, 0x00, 0x00, 0x00})
	err := runAnalyze(rootCmd, []string{path})
	require.Error(t, err)
}

func TestRunAnalyze_WithAllAnalysesEnabled(t *testing.T) {
	resetFlags()
	flagDomBuilder = true
	flagExtendBasicBlockBuilder = true
	flagHighFrequencySubExpr = true
	flagTreeHeightBalancing = true
	path := writeModule(t, minimalModule)
	err := runAnalyze(rootCmd, []string{path})
	// The minimal module has no instructions, so the frequency census fails fatally.
	require.ErrorIs(t, err, freq.ErrEmptyCodeSection)
}
