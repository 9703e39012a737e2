package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExecutableWrapsModules(t *testing.T) {
	modules := []*Module{
		{Name: "b", Path: "/p/b.lua", Content: "  return 42"},
	}
	entry := `local b = require("b")` + "\nprint(b)"

	bundle := BuildExecutable(modules, entry)

	assert.Contains(t, bundle, `-- module: "b"`)
	assert.Contains(t, bundle, "local function _loaded_mod_b()\n  return 42\nend")
	assert.Contains(t, bundle, `_G.package.loaded["b"] = _loaded_mod_b()`)
	// The entry file's own code comes last, unmodified.
	assert.True(t, strings.HasSuffix(bundle, entry))
	defIdx := strings.Index(bundle, "_loaded_mod_b")
	entryIdx := strings.Index(bundle, "print(b)")
	assert.Less(t, defIdx, entryIdx)
}

func TestBuildExecutableAliasesShareDefinition(t *testing.T) {
	// Two declared names resolving to the same path: one definition, two
	// registrations.
	modules := []*Module{
		{Name: "util", Path: "/p/util.lua", Content: "  return {}"},
		{Name: "lib.util", Path: "/p/util.lua", Content: "  return {}"},
	}

	bundle := BuildExecutable(modules, "")

	assert.Equal(t, 1, strings.Count(bundle, "local function _loaded_mod_util()"))
	assert.Contains(t, bundle, `_G.package.loaded["util"] = _loaded_mod_util()`)
	assert.Contains(t, bundle, `_G.package.loaded["lib.util"] = _loaded_mod_util()`)
}

func TestBuildExecutableSanitizesFunctionNames(t *testing.T) {
	modules := []*Module{
		{Name: "a.b-c", Path: "/p/a/b-c.lua", Content: "  return 1"},
	}
	bundle := BuildExecutable(modules, "")
	assert.Contains(t, bundle, "local function _loaded_mod_a_b_c()")
}

func TestCreateExecutableEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte("return 7"), 0o644))
	entryPath := filepath.Join(dir, "a.lua")
	require.NoError(t, os.WriteFile(entryPath, []byte(`local b = require("b")`+"\nHandlers = b"), 0o644))

	bundle, err := CreateExecutable(context.Background(), entryPath, "")
	require.NoError(t, err)

	// b's wrapped definition precedes a's own top-level code.
	assert.Less(t, strings.Index(bundle, "_loaded_mod_b"), strings.Index(bundle, "Handlers = b"))

	// Idempotent on unchanged files.
	again, err := CreateExecutable(context.Background(), entryPath, "")
	require.NoError(t, err)
	assert.Equal(t, bundle, again)
}
