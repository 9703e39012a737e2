package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a Lua project in a temp dir and returns its root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestResolveOrdersDependenciesFirst(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"b.lua": `return { hello = "world" }`,
		"c.lua": `local b = require("b")` + "\nreturn b",
	})
	entry := `local c = require("c")` + "\nprint(c)"

	modules, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "b", modules[0].Name)
	assert.Equal(t, "c", modules[1].Name)
	assert.Contains(t, modules[1].Deps, "b")
}

func TestResolveNestedNames(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"libs/util.lua": `return 42`,
	})
	entry := `local u = require("libs.util")`

	modules, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "libs.util", modules[0].Name)
	assert.Equal(t, filepath.Join(dir, "libs", "util.lua"), modules[0].Path)
}

func TestResolveDropsUnresolvableNames(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.lua": `local json = require("json")` + "\nreturn json",
	})
	entry := `require("a")`

	// "json" has no file on disk; it is assumed to exist in the remote
	// runtime rather than failing resolution.
	modules, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "a", modules[0].Name)
	assert.NotContains(t, modules[0].Deps, "json")
}

func TestResolveToleratesCycles(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"x.lua": `local y = require("y")` + "\nreturn {}",
		"y.lua": `local x = require("x")` + "\nreturn {}",
	})
	entry := `require("x")`

	modules, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)
	assert.Len(t, modules, 2)
}

func TestResolveIndentsContent(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"m.lua": "local v = 1\n\nreturn v",
	})

	modules, err := NewResolver(dir, "").Resolve(context.Background(), `require("m")`)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "  local v = 1\n\n  return v", modules[0].Content)
}

func TestResolveIsDeterministic(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.lua": `return 1`,
		"b.lua": `return 2`,
		"c.lua": `require("a")` + "\n" + `require("b")` + "\nreturn 3",
	})
	entry := `require("c")` + "\n" + `require("b")`

	first, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)
	second, err := NewResolver(dir, "").Resolve(context.Background(), entry)
	require.NoError(t, err)

	assert.Equal(t, BuildExecutable(first, entry), BuildExecutable(second, entry))
}

func TestScanRequires(t *testing.T) {
	src := `
local a = require("a.b.c")
local b = require('simple')
-- require("commented") is still textual and intentionally picked up
local notReq = "require(variable)"
`
	names := scanRequires(src)
	assert.Equal(t, []string{"a.b.c", "simple", "commented"}, names)
}
