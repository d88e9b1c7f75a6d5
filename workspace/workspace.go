// Package workspace provides the sandboxed per-iso file area. Every path is
// resolved and containment-checked before any I/O; escapes (absolute paths,
// parent traversal, symlinks pointing outside the root) fail with
// core.ErrSandboxViolation and touch nothing. The workspace is exposed to
// the loop only through tool capabilities, never called by adapters.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// Workspace is a file CRUD surface rooted at one iso's sandbox directory.
type Workspace struct {
	root string
}

// New creates (if needed) the sandbox root directory and returns a Workspace.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create root: %w", err)
	}
	// Canonicalize the root so containment checks compare against real paths.
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (w *Workspace) Root() string { return w.root }

// resolve maps a workspace-relative path to an absolute one, rejecting any
// resolution that would escape the root. The check runs before all I/O.
func (w *Workspace) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("workspace: %w: empty path", core.ErrSandboxViolation)
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("workspace: %w: absolute path %q", core.ErrSandboxViolation, path)
	}
	abs := filepath.Join(w.root, filepath.Clean(path))
	if abs != w.root && !strings.HasPrefix(abs, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("workspace: %w: %q resolves outside sandbox", core.ErrSandboxViolation, path)
	}
	// The lexical check alone would let a symlink created inside the
	// sandbox reach outside it; re-check against the real path.
	resolved, err := realpath(abs)
	if err != nil {
		return "", fmt.Errorf("workspace: %w: %q cannot be safely resolved", core.ErrSandboxViolation, path)
	}
	if resolved != w.root && !strings.HasPrefix(resolved, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("workspace: %w: %q resolves outside sandbox", core.ErrSandboxViolation, path)
	}
	return abs, nil
}

// realpath resolves symlinks in the longest existing prefix of abs and
// rejoins the remainder lexically. A dangling symlink component fails so
// no write can follow it to an unverified target.
func realpath(abs string) (string, error) {
	p, suffix := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if fi, lerr := os.Lstat(p); lerr == nil && fi.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("dangling symlink: %s", p)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		p = parent
	}
}

// Create writes a new file. Fails if the file already exists.
func (w *Workspace) Create(path, content string) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("workspace: file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("workspace: create parent: %w", err)
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// Read returns a file's content.
func (w *Workspace) Read(path string) (string, error) {
	abs, err := w.resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("workspace: %w: %s", core.ErrNotFound, path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("workspace: path is a directory: %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Update overwrites an existing file. Fails if the file does not exist.
func (w *Workspace) Update(path, content string) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("workspace: %w: %s", core.ErrNotFound, path)
		}
		return err
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// Delete removes a file.
func (w *Workspace) Delete(path string) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("workspace: %w: %s", core.ErrNotFound, path)
		}
		return err
	}
	return os.Remove(abs)
}

// List returns a structured listing of dir (workspace-relative, "" or "."
// for the root) up to maxDepth levels deep. Directories carry a trailing
// slash; entries are sorted for deterministic prompt content.
func (w *Workspace) List(dir string, maxDepth int) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := w.resolve(dir)
	if err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = 2
	}

	var out []string
	var walk func(path string, depth int) error
	walk = func(path string, depth int) error {
		if depth > maxDepth {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			rel, err := filepath.Rel(w.root, filepath.Join(path, e.Name()))
			if err != nil {
				return err
			}
			if e.IsDir() {
				out = append(out, rel+"/")
				if err := walk(filepath.Join(path, e.Name()), depth+1); err != nil {
					return err
				}
			} else {
				out = append(out, rel)
			}
		}
		return nil
	}

	if err := walk(abs, 1); err != nil {
		return nil, err
	}
	return out, nil
}
