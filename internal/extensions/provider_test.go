package extensions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func setupExtensionsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatalf("Failed to create extension dir %s: %v", name, err)
		}
	}
	return dir
}

func TestListParsesDirectoryNames(t *testing.T) {
	dir := setupExtensionsDir(t,
		"ms-python.python-2024.2.1",
		"esbenp.prettier-vscode-10.4.0",
	)

	p, err := NewDirProvider(dir)
	if err != nil {
		t.Fatalf("NewDirProvider failed: %v", err)
	}
	got, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 extensions, got %d", len(got))
	}
	byID := map[string]string{}
	for _, e := range got {
		byID[e.ID] = e.Version
	}
	if byID["ms-python.python"] != "2024.2.1" {
		t.Errorf("Expected ms-python.python 2024.2.1, got %q", byID["ms-python.python"])
	}
	if byID["esbenp.prettier-vscode"] != "10.4.0" {
		t.Errorf("Expected esbenp.prettier-vscode 10.4.0, got %q", byID["esbenp.prettier-vscode"])
	}
}

func TestListKeepsNewestVersion(t *testing.T) {
	dir := setupExtensionsDir(t,
		"pub.ext-1.9.0",
		"pub.ext-1.10.0",
		"pub.ext-1.2.0",
	)

	p, _ := NewDirProvider(dir)
	got, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 extension, got %d", len(got))
	}
	// 1.10.0 > 1.9.0 numerically, not lexically
	if got[0].Version != "1.10.0" {
		t.Errorf("Expected newest version 1.10.0, got %q", got[0].Version)
	}
}

func TestListIgnoresNoise(t *testing.T) {
	dir := setupExtensionsDir(t,
		"pub.ext-1.0.0",
		".obsolete",
		"not-an-extension",
	)
	// A stray file should be ignored too
	if err := os.WriteFile(filepath.Join(dir, "extensions.json"), []byte("[]"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	p, _ := NewDirProvider(dir)
	got, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "pub.ext" {
		t.Errorf("Expected only pub.ext, got %+v", got)
	}
}

func TestListMissingDirectory(t *testing.T) {
	p, _ := NewDirProvider(filepath.Join(t.TempDir(), "does-not-exist"))
	got, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty list, got %+v", got)
	}
}

func TestSplitNameVersion(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		version string
		ok      bool
	}{
		{"pub.ext-1.2.3", "pub.ext", "1.2.3", true},
		{"pub.my-ext-1.0.0", "pub.my-ext", "1.0.0", true},
		{"pub.ext-1.2.3-beta", "pub.ext", "1.2.3-beta", true},
		{"no-dot-here", "", "", false},
		{"noversion", "", "", false},
	}
	for _, tt := range tests {
		id, version, ok := splitNameVersion(tt.name)
		if ok != tt.ok || id != tt.id || version != tt.version {
			t.Errorf("splitNameVersion(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.name, id, version, ok, tt.id, tt.version, tt.ok)
		}
	}
}
