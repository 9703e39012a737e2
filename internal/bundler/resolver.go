package bundler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
	"github.com/pawanpaudel93/ao-deploy/internal/fsutil"
)

// Resolver discovers the transitive dependency graph of a Lua project.
type Resolver struct {
	dir     string
	luaPath string

	// modules is keyed by declared module name. It doubles as the visited
	// set during discovery, which is what makes cyclic requires terminate.
	modules map[string]*Module
}

// NewResolver creates a Resolver rooted at the given project directory.
// luaPath is an optional semicolon-delimited interpreter search path used as
// a fallback when a name does not map onto a file below dir.
func NewResolver(dir, luaPath string) *Resolver {
	return &Resolver{
		dir:     dir,
		luaPath: luaPath,
		modules: make(map[string]*Module),
	}
}

// Resolve scans entrySource for require declarations, loads every reachable
// local module, and returns the graph in dependency order (dependencies
// before dependents). Names that cannot be resolved to a local file are
// assumed to be available in the remote runtime and dropped.
func (r *Resolver) Resolve(ctx context.Context, entrySource string) ([]*Module, error) {
	entryDeps := make(map[string]struct{})
	for _, name := range scanRequires(entrySource) {
		if err := r.discover(ctx, name, entryDeps); err != nil {
			return nil, err
		}
	}
	return r.sorted()
}

// discover resolves one declared name, loading its content and recursing
// into its own requires. On success the name is recorded in parentDeps.
func (r *Resolver) discover(ctx context.Context, name string, parentDeps map[string]struct{}) error {
	logger := ctxlog.FromContext(ctx)

	if _, ok := r.modules[name]; ok {
		parentDeps[name] = struct{}{}
		return nil
	}

	path := r.findPath(ctx, name)
	if path == "" {
		// Not on disk: assume the remote runtime already provides it.
		logger.Debug("Module not found locally, assuming it is available remotely.", "module", name)
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading module %q from %s: %w", name, path, err)
	}

	mod := &Module{
		Name:    name,
		Path:    path,
		Content: indent(string(raw)),
		Deps:    make(map[string]struct{}),
	}
	r.modules[name] = mod
	parentDeps[name] = struct{}{}
	logger.Debug("Resolved module.", "module", name, "path", path)

	for _, dep := range scanRequires(string(raw)) {
		if err := r.discover(ctx, dep, mod.Deps); err != nil {
			return err
		}
	}
	return nil
}

// findPath maps a dotted module name to a file on disk. The direct mapping
// below the project directory wins; otherwise the configured interpreter
// search path is queried.
func (r *Resolver) findPath(ctx context.Context, name string) string {
	direct := filepath.Join(r.dir, filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))+".lua")
	if fsutil.FileExists(direct) {
		return direct
	}
	return r.searchLuaPath(ctx, name)
}

// searchLuaPath shells out to the Lua interpreter to run package.searchpath
// over the configured extra search path. Any failure is treated as
// not-found.
func (r *Resolver) searchLuaPath(ctx context.Context, name string) string {
	if r.luaPath == "" {
		return ""
	}
	script := fmt.Sprintf("print(package.searchpath(%q, %q))", name, r.luaPath)
	out, err := exec.CommandContext(ctx, "lua", "-e", script).Output()
	if err != nil {
		return ""
	}
	path := strings.TrimSpace(string(out))
	if path == "" || path == "nil" || !fsutil.FileExists(path) {
		return ""
	}
	return path
}

// sorted produces the dependency-ordered module list via depth-first
// traversal over lexicographically sorted names, so the output is stable
// across runs.
func (r *Resolver) sorted() ([]*Module, error) {
	visited := make(map[string]bool, len(r.modules))
	out := make([]*Module, 0, len(r.modules))

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true

		mod, ok := r.modules[name]
		if !ok {
			return &ResolutionError{Name: name}
		}
		for _, dep := range sortedKeys(mod.Deps) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		out = append(out, mod)
		return nil
	}

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
