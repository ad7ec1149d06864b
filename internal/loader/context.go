package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/bundlegrid/internal/fsutil"
)

// ExportsFileName is the optional symbol payload relative to the bundle's
// working directory. Its top-level attributes become the bundle's locally
// resolvable symbols.
const ExportsFileName = "exports.hcl"

// Context is an isolated symbol-resolution scope bound to one bundle
// working directory. Lookups try the local symbol table first and then
// delegate to the parent chain. A Context is immutable once constructed
// and safe to share by reference across goroutines.
type Context struct {
	workingDir string
	parent     *Context
	symbols    map[string]cty.Value
}

// NewRootContext builds the system context that sits above the base
// bundle. It has no working directory and no parent; the embedding process
// constructs it and seeds whatever symbols the platform provides.
func NewRootContext(symbols map[string]cty.Value) *Context {
	table := make(map[string]cty.Value, len(symbols))
	for name, val := range symbols {
		table[name] = val
	}
	return &Context{symbols: table}
}

// NewContext constructs the loading context for the bundle unpacked in
// workingDir, delegating unresolved symbols to parent. The directory is
// canonicalized and must be readable; a present exports payload must parse.
func NewContext(workingDir string, parent *Context) (*Context, error) {
	canonical, err := fsutil.CanonicalPath(workingDir)
	if err != nil {
		return nil, &ContextError{Dir: workingDir, Err: err}
	}
	if err := fsutil.EnsureDirAccessible(canonical); err != nil {
		return nil, &ContextError{Dir: canonical, Err: err}
	}

	symbols, err := readExports(canonical)
	if err != nil {
		return nil, &ContextError{Dir: canonical, Err: err}
	}

	return &Context{
		workingDir: canonical,
		parent:     parent,
		symbols:    symbols,
	}, nil
}

// WorkingDir returns the canonical working directory this context is bound
// to. It is empty for the root context.
func (c *Context) WorkingDir() string { return c.workingDir }

// Parent returns the context this one delegates to, or nil for the root.
func (c *Context) Parent() *Context { return c.parent }

// Resolve looks up a symbol, trying the local table first and then each
// ancestor in turn. The second return value reports whether the symbol was
// found anywhere on the chain.
func (c *Context) Resolve(name string) (cty.Value, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if val, ok := ctx.symbols[name]; ok {
			return val, true
		}
	}
	return cty.NilVal, false
}

// readExports parses the bundle's exports payload into a symbol table. A
// missing file is fine and yields an empty table.
func readExports(dir string) (map[string]cty.Value, error) {
	path := filepath.Join(dir, ExportsFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]cty.Value{}, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	attrs, diags := hclFile.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	symbols := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate export %q in %s: %w", name, path, diags)
		}
		symbols[name] = val
	}
	return symbols, nil
}
