package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/docextract/internal/config"
)

func TestGenerateConfigLoads(t *testing.T) {
	t.Parallel()
	content, err := generateConfig()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v\n%s", err, content)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("generated config is invalid: %v", err)
	}
	if cfg.Source != config.Default().Source {
		t.Errorf("source = %q", cfg.Source)
	}
}

func TestGenerateConfigHeader(t *testing.T) {
	t.Parallel()
	content, err := generateConfig()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"#   /** @desc Greets people.",
		"#    * @param {string} name - who to greet",
		"#    */",
		"access-filter",
		"drop-undocumented",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
}

func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(stderr.String(), "wrote "+path) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestInitDefaultPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "-d", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte("source: ./lib\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"init", path}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "source: ./lib\n" {
		t.Error("existing file was modified")
	}

	if err := run([]string{"init", "--force", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "source: ./src") {
		t.Errorf("file not overwritten:\n%s", data)
	}
}

func TestInitDryRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout.String(), "destination: ./docs") {
		t.Errorf("dry run should print the config:\n%s", stdout.String())
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("dry run should not write the file")
	}
}
