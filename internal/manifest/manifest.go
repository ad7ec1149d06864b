// Package manifest reads bundle descriptors from working directories.
//
// Every bundle working directory carries a bundle.hcl manifest. Only two
// attributes are recognized: `id`, the bundle's unique identifier, and
// `dependency`, the id of the single bundle this one delegates to. Both are
// optional at parse time; a bundle without an id is unloadable and gets
// skipped later by the resolution engine, never rejected here. Uniqueness
// of ids is likewise the engine's concern, not the reader's.
package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// FileName is the manifest's fixed location relative to the bundle's
// working directory.
const FileName = "bundle.hcl"

// Descriptor holds the metadata extracted from one bundle's manifest.
// Empty strings mean the corresponding attribute was absent.
type Descriptor struct {
	ID           string
	DependencyID string
	WorkingDir   string
}

// ReadError reports a missing or malformed manifest for one bundle.
type ReadError struct {
	Dir string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read bundle manifest in %s: %v", e.Dir, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// manifestFile is the decoding target for bundle.hcl. Pointer fields make
// both attributes optional; Remain tolerates attributes this loader does
// not recognize.
type manifestFile struct {
	ID         *string  `hcl:"id"`
	Dependency *string  `hcl:"dependency"`
	Remain     hcl.Body `hcl:",remain"`
}

// Read parses the manifest in the given working directory and returns its
// descriptor. The id and dependency values are returned verbatim.
func Read(dir string) (*Descriptor, error) {
	path := filepath.Join(dir, FileName)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &ReadError{Dir: dir, Err: diags}
	}

	var parsed manifestFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, &ReadError{Dir: dir, Err: diags}
	}

	desc := &Descriptor{WorkingDir: dir}
	if parsed.ID != nil {
		desc.ID = *parsed.ID
	}
	if parsed.Dependency != nil {
		desc.DependencyID = *parsed.Dependency
	}
	return desc, nil
}
