package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestDiscoverJavaScriptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "index.js", "export default 1;")
	writeFile(t, dir, "lib/util.mjs", "export function helper() {}")
	// Non-JavaScript file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.js", "secret")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths(entries))
	}

	// Should be sorted, slash separated
	if entries[0].Path != "index.js" {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "lib/util.mjs" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}

	for _, e := range entries {
		if e.Language != "javascript" {
			t.Errorf("entry %q: language = %q, want javascript", e.Path, e.Language)
		}
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.js", "1")
	writeFile(t, dir, "node_modules/pkg/index.js", "1")
	writeFile(t, dir, "coverage/lcov.js", "1")
	writeFile(t, dir, ".hidden/secret.js", "1")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(entries), paths(entries))
	}
	if entries[0].Path != "main.js" {
		t.Errorf("expected main.js, got %q", entries[0].Path)
	}
}

func TestDiscoverIncludesExcludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "a.js", "1")
	writeFile(t, dir, "b.test.js", "1")
	writeFile(t, dir, "nested/c.js", "1")
	writeFile(t, dir, "nested/d.config.js", "1")
	writeFile(t, dir, "e.cjs", "1")

	entries, err := Files(dir, Options{
		Includes: []string{"**/*.js"},
		Excludes: []string{"**/*.test.js", "**/*.config.js"},
	})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := paths(entries)
	want := []string{"a.js", "nested/c.js"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := Files(t.TempDir(), Options{Includes: []string{"[abc"}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated\n")
	writeFile(t, dir, "src.js", "1")
	writeFile(t, dir, "generated/out.js", "1")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "src.js" {
		t.Fatalf("expected only src.js, got %v", paths(entries))
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.js", "1")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.js"), filepath.Join(dir, "link.js"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.js" {
		t.Errorf("expected real.js, got %q", entries[0].Path)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
