// Package bundler resolves the local `require` dependencies of a Lua entry
// file and flattens the whole project into a single executable source text.
//
// Resolution walks the dependency graph depth-first from the entry file,
// mapping dotted module names onto files below the project directory (with an
// optional interpreter-path fallback), and tolerates cycles. The bundle emits
// each module exactly once, in dependency order, as a guarded function
// definition plus one module-cache registration per declared alias, so that a
// remote evaluator running the flat script sees every `require` satisfied
// from the pre-populated cache instead of hitting disk.
package bundler
