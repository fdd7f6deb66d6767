// Package signature implements the signature acquisition collaborator: a
// YAML loader producing a types.SignatureSet, plus a small embedded builtin
// set of illustrative PHP-malware signatures. It is not on the scan's hot
// path; it runs once, before Scanner.Scan, ahead of matcher construction.
package signature

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// Loader reads signature definitions from YAML, either from an arbitrary
// fs.FS or the embedded builtin set.
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a Loader reading from the embedded builtin signatures.
func NewLoader() *Loader {
	return &Loader{fsys: builtinFS}
}

// NewLoaderWithFS creates a Loader over an arbitrary filesystem. Only
// LoadBuiltin reads from it, walking its builtin/ directory; LoadFile
// always reads from the OS filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadFile parses one YAML file into a SignatureSet.
func (l *Loader) LoadFile(path string) (*types.SignatureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signature: read %s: %w", path, err)
	}
	return l.parse(data)
}

// LoadBuiltin walks every YAML file under builtin/ and merges them into one
// SignatureSet.
func (l *Loader) LoadBuiltin() (*types.SignatureSet, error) {
	return l.loadDir("builtin")
}

func (l *Loader) loadDir(dir string) (*types.SignatureSet, error) {
	set := types.NewSignatureSet()

	err := fs.WalkDir(l.fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(l.fsys, path)
		if err != nil {
			return fmt.Errorf("signature: read %s: %w", path, err)
		}
		var file yamlSignaturesFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("signature: parse %s: %w", path, err)
		}
		for _, ys := range file.Signatures {
			if err := set.Add(convert(ys)); err != nil {
				return fmt.Errorf("signature: %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	set.Build()
	return set, nil
}

func (l *Loader) parse(data []byte) (*types.SignatureSet, error) {
	var file yamlSignaturesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("signature: parse YAML: %w", err)
	}
	if len(file.Signatures) == 0 {
		return nil, fmt.Errorf("signature: no signatures found")
	}

	set := types.NewSignatureSet()
	for _, ys := range file.Signatures {
		if err := set.Add(convert(ys)); err != nil {
			return nil, err
		}
	}
	set.Build()
	return set, nil
}

func convert(ys yamlSignature) *types.Signature {
	return &types.Signature{
		ID:        ys.ID,
		Pattern:   ys.Pattern,
		Anchored:  ys.Anchored,
		TimeoutMS: ys.TimeoutMS,
		Keywords:  ys.Keywords,
	}
}
