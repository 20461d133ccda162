package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/codegen/internal/config"
	"github.com/jorge-barreto/codegen/internal/state"
)

func TestReadLines(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		description string
		module      string
		wantDesc    string
		wantModule  string
	}{
		{"both from input", "A book catalog\nbook\n", "", "", "A book catalog", "book"},
		{"module only", "book\n", "A book catalog", "", "A book catalog", "book"},
		{"description only", "A book catalog\n", "", "books", "A book catalog", "books"},
		{"no trailing newline", "A book catalog\n  book  ", "", "", "A book catalog", "book"},
		{"eof", "", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, module, err := readLines(strings.NewReader(tt.input), tt.description, tt.module)
			if err != nil {
				t.Fatal(err)
			}
			if desc != tt.wantDesc || module != tt.wantModule {
				t.Fatalf("got (%q, %q), want (%q, %q)", desc, module, tt.wantDesc, tt.wantModule)
			}
		})
	}
}

func TestFindProjectRoot_Flag(t *testing.T) {
	dir := t.TempDir()
	got, err := findProjectRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
	if _, err := findProjectRoot(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for a missing root")
	}
}

func TestFindProjectRoot_WalksUp(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	os.MkdirAll(filepath.Join(root, ".codegen"), 0755)
	os.WriteFile(config.Path(root), []byte("name: api\n"), 0644)
	nested := filepath.Join(root, "src", "modules")
	os.MkdirAll(nested, 0755)
	t.Chdir(nested)

	got, err := findProjectRoot("")
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Fatalf("got %q, want %q", got, root)
	}
}

func TestLastRun(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	if _, _, err := lastRun(cfg, ""); err == nil {
		t.Fatal("expected error when no run is recorded")
	}

	st := state.New("run-1", "books", "A book catalog")
	if err := st.Save(cfg.ArtifactsDir("books")); err != nil {
		t.Fatal(err)
	}

	got, dir, err := lastRun(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-1" || dir != cfg.ArtifactsDir("books") {
		t.Fatalf("got %+v in %s", got, dir)
	}

	got, _, err = lastRun(cfg, "book")
	if err != nil {
		t.Fatal(err)
	}
	if got.Module != "books" {
		t.Fatalf("module = %q, want books", got.Module)
	}

	if _, _, err := lastRun(cfg, "authors"); err == nil {
		t.Fatal("expected error for a module without runs")
	}
	if _, _, err := lastRun(cfg, "../books"); err == nil || !strings.Contains(err.Error(), "invalid module name") {
		t.Fatalf("expected invalid module name error, got %v", err)
	}
}
