package bundler

import (
	"fmt"
	"regexp"
	"strings"
)

// Module represents one resolved dependency unit of a Lua project.
type Module struct {
	// Name is the dotted logical identifier used in `require` calls,
	// e.g. "a.b.c".
	Name string

	// Path is the resolved filesystem location. Several names may alias the
	// same path; the bundle defines such a module once and registers it under
	// every alias.
	Path string

	// Content is the module's source text, indented for safe embedding
	// inside a function body. Immutable once loaded.
	Content string

	// Deps holds the names of modules this module itself requires, limited
	// to names that resolved to a local file.
	Deps map[string]struct{}
}

// ResolutionError reports a module name that is referenced by the dependency
// graph but absent from it. This indicates a bug in the resolution pass, not
// a user error.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("module %q referenced in dependency graph but never resolved", e.Name)
}

// requirePattern matches require calls with a literal dotted-identifier
// argument, capturing the module name.
var requirePattern = regexp.MustCompile(`require\(\s*["']([\w.\-]+)["']\s*\)`)

// scanRequires returns the module names declared by require calls in src, in
// order of appearance.
func scanRequires(src string) []string {
	matches := requirePattern.FindAllStringSubmatch(src, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// indent shifts every non-blank line of src right by two spaces so the text
// can be embedded in a Lua function body without disturbing its structure.
func indent(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
