// Package project locates and loads the Python files a move operates
// on: walking the tree, mapping dotted module names to paths and back,
// and writing results atomically.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/pymove/internal/resolve"
	"github.com/Sumatoshi-tech/pymove/pkg/textutil"
)

// Dirs never worth scanning.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"genfiles":     true,
	"node_modules": true,
}

// A Tree is one project root.
type Tree struct {
	Root string
	// Exclude holds glob patterns matched against root-relative paths
	// and base names; matching files are left out of the walk.
	Exclude []string
}

// NewTree returns a Tree rooted at root.
func NewTree(root string) *Tree {
	return &Tree{Root: root}
}

func (t *Tree) excluded(rel, base string) bool {
	for _, pat := range t.Exclude {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}

		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}

	return false
}

// PyFiles walks the root and returns the relative paths of every
// Python source file, in walk order. Hidden directories, caches, and
// binary files are skipped.
func (t *Tree) PyFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		if d.IsDir() {
			if path != t.Root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(name, ".py") {
			return nil
		}

		rel, err := filepath.Rel(t.Root, path)
		if err != nil {
			return err
		}

		slashed := filepath.ToSlash(rel)
		if t.excluded(slashed, name) {
			return nil
		}

		files = append(files, slashed)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", t.Root, err)
	}

	return files, nil
}

// Read loads one file by its root-relative path, rejecting content that
// is not Python text.
func (t *Tree) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(t.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	if textutil.IsBinary(data) {
		return nil, fmt.Errorf("%s: binary content", rel)
	}

	if lang := enry.GetLanguage(filepath.Base(rel), data); lang != "" && lang != "Python" {
		return nil, fmt.Errorf("%s: not a Python file (%s)", rel, lang)
	}

	return data, nil
}

// Abs returns the absolute path for a root-relative one.
func (t *Tree) Abs(rel string) string {
	return filepath.Join(t.Root, filepath.FromSlash(rel))
}

// Exists reports whether a root-relative path exists.
func (t *Tree) Exists(rel string) bool {
	_, err := os.Stat(t.Abs(rel))

	return err == nil
}

// ModuleForPath maps a root-relative file path to its dotted module
// name.
func (t *Tree) ModuleForPath(rel string) string {
	return resolve.ModuleNameForPath(rel)
}

// PathForModule maps a dotted module name to a root-relative file path,
// preferring an existing package __init__.py over a plain module file.
func (t *Tree) PathForModule(module string) string {
	base := strings.ReplaceAll(module, ".", "/")

	if pkg := base + "/__init__.py"; t.Exists(pkg) {
		return pkg
	}

	return base + ".py"
}

// Write atomically replaces a file's content: data lands in a
// temporary file in the same directory, then renames over the target.
func (t *Tree) Write(rel string, data []byte) error {
	abs := t.Abs(rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(rel), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".pymove-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("writing %s: %w", rel, err)
	}

	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("writing %s: %w", rel, err)
	}

	if err = os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("writing %s: %w", rel, err)
	}

	return nil
}

// Remove deletes a file, pruning directories left empty behind it up to
// the root.
func (t *Tree) Remove(rel string) error {
	if err := os.Remove(t.Abs(rel)); err != nil {
		return fmt.Errorf("removing %s: %w", rel, err)
	}

	dir := filepath.Dir(rel)
	for dir != "." && dir != "/" {
		if err := os.Remove(t.Abs(dir)); err != nil {
			break
		}

		dir = filepath.Dir(dir)
	}

	return nil
}
