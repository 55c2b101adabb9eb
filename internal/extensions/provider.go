// Package extensions enumerates the installed editor extensions that the
// scanner assesses. Enumeration is read-only: providers report identity and
// version, nothing else.
package extensions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/extrisk/extrisk/internal/types"
)

// Provider enumerates installed extensions.
type Provider interface {
	List(ctx context.Context) ([]types.Extension, error)
}

// DirProvider reads a VS Code-style extensions directory, where each
// installed extension lives in a directory named "publisher.name-version".
// When several versions of the same extension are installed side by side,
// only the newest is reported.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider over dir. An empty dir defaults to
// ~/.vscode/extensions.
func NewDirProvider(dir string) (*DirProvider, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".vscode", "extensions")
	}
	return &DirProvider{dir: dir}, nil
}

// List parses the directory entries. A missing directory yields an empty
// list, not an error: machines without the editor installed are fine.
func (p *DirProvider) List(ctx context.Context) ([]types.Extension, error) {
	entries, err := os.ReadDir(p.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read extensions directory %s: %w", p.dir, err)
	}

	newest := make(map[string]string) // id → highest installed version
	var order []string

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		id, version, ok := splitNameVersion(entry.Name())
		if !ok {
			continue
		}
		prev, seen := newest[id]
		if !seen {
			order = append(order, id)
			newest[id] = version
			continue
		}
		if semver.Compare("v"+version, "v"+prev) > 0 {
			newest[id] = version
		}
	}

	out := make([]types.Extension, 0, len(order))
	for _, id := range order {
		out = append(out, types.Extension{ID: id, Version: newest[id]})
	}
	return out, nil
}

// splitNameVersion splits "publisher.name-1.2.3" into id and version. The
// id always contains a dot (publisher separator); the version must parse as
// semver. Pre-release suffixes ("1.2.3-beta") stay with the version.
func splitNameVersion(name string) (id, version string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] != '-' {
			continue
		}
		candidate := name[i+1:]
		if strings.Contains(name[:i], ".") && semver.IsValid("v"+candidate) {
			return name[:i], candidate, true
		}
	}
	return "", "", false
}

// StaticProvider returns a fixed extension list. Used in tests and anywhere
// the caller already holds the list.
type StaticProvider struct {
	Extensions []types.Extension
}

func (p *StaticProvider) List(ctx context.Context) ([]types.Extension, error) {
	return p.Extensions, nil
}
