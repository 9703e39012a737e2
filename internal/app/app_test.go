package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunBuildOnlyWritesBundle(t *testing.T) {
	dir := t.TempDir()
	contract := writeFile(t, dir, "contract.lua", `local util = require("util")
print(util.greet())`)
	writeFile(t, dir, "util.lua", `local M = {}
function M.greet() return "hi" end
return M`)

	outDir := filepath.Join(dir, "dist")
	cfg, err := NewConfig(Config{
		Path:      contract,
		Name:      "demo",
		BuildOnly: true,
		OutDir:    outDir,
	})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut, cfg)
	require.NoError(t, app.Run(context.Background()))

	bundled, err := os.ReadFile(filepath.Join(outDir, "demo.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(bundled), `_G.package.loaded["util"]`)
	assert.Contains(t, string(bundled), "print(util.greet())")
	assert.Contains(t, out.String(), "Bundle written to")
}

func TestRunBuildOnlyDefaultsName(t *testing.T) {
	dir := t.TempDir()
	contract := writeFile(t, dir, "contract.lua", `print("plain")`)

	outDir := filepath.Join(dir, "dist")
	cfg, err := NewConfig(Config{Path: contract, BuildOnly: true, OutDir: outDir})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.NoError(t, NewApp(&out, &errOut, cfg).Run(context.Background()))

	_, statErr := os.Stat(filepath.Join(outDir, "default.lua"))
	assert.NoError(t, statErr)
}

func TestRunBatchBuildOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.lua", `print("a")`)
	writeFile(t, dir, "b.lua", `print("b")`)
	hcl := writeFile(t, dir, "deployments.hcl", `
deployment "alpha" {
  contract_path = "`+filepath.Join(dir, "a.lua")+`"
}

deployment "beta" {
  contract_path = "`+filepath.Join(dir, "b.lua")+`"
}
`)

	outDir := filepath.Join(dir, "dist")
	cfg, err := NewConfig(Config{Path: hcl, BuildOnly: true, OutDir: outDir})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.NoError(t, NewApp(&out, &errOut, cfg).Run(context.Background()))

	for _, name := range []string{"alpha.lua", "beta.lua"} {
		_, statErr := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, statErr, name)
	}
}

func TestRunBatchUnknownSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.lua", `print("a")`)
	hcl := writeFile(t, dir, "deployments.hcl", `
deployment "alpha" {
  contract_path = "`+filepath.Join(dir, "a.lua")+`"
}
`)

	cfg, err := NewConfig(Config{Path: hcl, Deploy: []string{"missing"}})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	runErr := NewApp(&out, &errOut, cfg).Run(context.Background())
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), "missing")
}

func TestNewConfigRequiresSource(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)
}

func TestNewConfigDefaultsConcurrency(t *testing.T) {
	cfg, err := NewConfig(Config{Path: "contract.lua"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Concurrency)
}
