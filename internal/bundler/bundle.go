package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var functionNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// BuildExecutable concatenates the ordered modules and the entry source into
// one flat script. Each resolved path is defined exactly once as a local
// function; every alias of that path gets its own registration into the Lua
// module cache. The output is a pure function of its inputs.
func BuildExecutable(modules []*Module, entrySource string) string {
	var b strings.Builder
	defined := make(map[string]string, len(modules))

	for _, mod := range modules {
		fn, seen := defined[mod.Path]
		if !seen {
			// Sanitization can collide for distinct names ("a.b" and "a_b"
			// both yield _loaded_mod_a_b); the later definition shadows the
			// earlier one. Known limitation.
			fn = "_loaded_mod_" + functionNameSanitizer.ReplaceAllString(mod.Name, "_")
			defined[mod.Path] = fn
			fmt.Fprintf(&b, "-- module: %q\nlocal function %s()\n%s\nend\n\n", mod.Name, fn, mod.Content)
		}
		fmt.Fprintf(&b, "_G.package.loaded[%q] = %s()\n\n", mod.Name, fn)
	}

	b.WriteString(entrySource)
	return b.String()
}

// CreateExecutable reads the entry file at path, resolves its dependency
// graph relative to the file's directory, and returns the bundled source.
func CreateExecutable(ctx context.Context, path, luaPath string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading entry file: %w", err)
	}
	entrySource := string(raw)

	resolver := NewResolver(filepath.Dir(path), luaPath)
	modules, err := resolver.Resolve(ctx, entrySource)
	if err != nil {
		return "", err
	}
	return BuildExecutable(modules, entrySource), nil
}
