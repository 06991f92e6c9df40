package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/docextract/internal/model"
)

func writeTestFile(t *testing.T, root, rel, content string) {
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

func createSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/shape.js", `/**
 * Base of all shapes.
 */
export default class Shape {
  /** @return {number} */
  area() { return 0; }
}
`)
	writeTestFile(t, dir, "src/square.js", `import Shape from './shape';

/** A square. */
export class Square extends Shape {
  /** @param {number} side */
  constructor(side) {
    super();
    /** @type {number} */
    this.side = side;
  }
}

/** @typedef {Object} Options */
`)
	writeTestFile(t, dir, "README.md", "# shapes\n")
	writeTestFile(t, dir, "package.json", `{"name": "shapes"}`)
	return dir
}

func readIndex(t *testing.T, path string) []*model.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	var recs []*model.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("decoding index: %v", err)
	}
	return recs
}

func longnames(recs []*model.Record) map[string]*model.Record {
	out := make(map[string]*model.Record, len(recs))
	for _, r := range recs {
		out[r.Longname] = r
	}
	return out
}

func TestRunWritesIndex(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no stdout by default, got:\n%s", stdout.String())
	}

	recs := readIndex(t, filepath.Join(dir, "docs", "index.json"))
	byName := longnames(recs)
	for _, want := range []string{
		"src/shape.js~Shape",
		"src/shape.js~Shape#area",
		"src/square.js~Square",
		"src/square.js~Square#constructor",
		"src/square.js~Square#side",
		"src/square.js~Options",
	} {
		if byName[want] == nil {
			t.Errorf("missing record %s", want)
		}
	}

	sq := byName["src/square.js~Square"]
	if sq != nil && (len(sq.Extends) != 1 || sq.Extends[0] != "src/shape.js~Shape") {
		t.Errorf("Square extends = %v", sq.Extends)
	}
	if sq != nil && sq.ImportPath != "shapes/src/square.js" {
		t.Errorf("Square importPath = %q", sq.ImportPath)
	}

	last := recs[len(recs)-1]
	if last.Kind != model.PackageJSON {
		t.Errorf("last record kind = %s, want packageJSON", last.Kind)
	}
	if !strings.Contains(stderr.String(), "generated") {
		t.Errorf("missing summary log line:\n%s", stderr.String())
	}
}

func TestRunGenerateSubcommand(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"generate", "-d", dir, "--format", "json"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var recs []*model.Record
	if err := json.Unmarshal(stdout.Bytes(), &recs); err != nil {
		t.Fatalf("stdout is not a record list: %v\n%s", err, stdout.String())
	}
	onDisk := readIndex(t, filepath.Join(dir, "docs", "index.json"))
	if len(recs) != len(onDisk) {
		t.Errorf("stdout has %d records, index.json has %d", len(recs), len(onDisk))
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "conf/docs.yml", `source: ../src
destination: ../out
plugins:
  - name: access-filter
    option:
      access: [public]
`)
	writeTestFile(t, dir, "src/private.js", "/** @private */\nexport function secret() {}\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-c", filepath.Join(dir, "conf", "docs.yml")}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	byName := longnames(readIndex(t, filepath.Join(dir, "out", "index.json")))
	if byName["src/private.js~secret"] != nil {
		t.Error("private record should have been filtered")
	}
	if byName["src/shape.js~Shape"] == nil {
		t.Error("public record missing")
	}
}

func TestRunUnknownConfigKey(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, ".docextract.yml", "sauce: ./src\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-d", dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unknown config key")
	}
	if !strings.Contains(err.Error(), "sauce") {
		t.Errorf("error should name the key: %v", err)
	}
}

func TestRunUnknownPlugin(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, ".docextract.yml", "plugins:\n  - name: nope\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-d", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), `unknown plugin "nope"`) {
		t.Fatalf("expected unknown plugin error, got %v", err)
	}
}

func TestRunBadFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-d", dir, "--format", "xml"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestRunToon(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--format", "toon"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "project: ") {
		t.Errorf("missing project header:\n%s", out)
	}
	for _, want := range []string{
		"records[",
		"class,src/shape.js~Shape,",
		"classes[2]{longname,rank,ancestors,subclasses,descendants}:",
		"extends[1]{subclass,superclass}:",
		"  src/square.js~Square,src/shape.js~Shape",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunToonSymbolFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--format", "toon", "--symbol", "square"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "src/square.js~Square#side") {
		t.Errorf("members of the matched class should be kept:\n%s", out)
	}
	if strings.Contains(out, "class,src/shape.js~Shape,") {
		t.Errorf("unmatched class should be dropped:\n%s", out)
	}
}

func TestRunToonMaxClasses(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--format", "toon", "--max-classes", "1"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "classes[1]") {
		t.Errorf("expected one class:\n%s", out)
	}
	if !strings.Contains(out, "src/shape.js~Shape") {
		t.Errorf("the base class should rank first:\n%s", out)
	}
	if strings.Contains(out, "src/square.js~Square#side") {
		t.Errorf("members of dropped classes should go too:\n%s", out)
	}
}

func TestRunStoreAndShow(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	db := filepath.Join(t.TempDir(), "docs.db")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--db", db}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	stdout.Reset()
	if err := run([]string{"show", "--db", db, "src/square.js~Square"}, &stdout, &stderr); err != nil {
		t.Fatalf("show: %v\nstderr: %s", err, stderr.String())
	}
	var recs []*model.Record
	if err := json.Unmarshal(stdout.Bytes(), &recs); err != nil {
		t.Fatalf("show output: %v\n%s", err, stdout.String())
	}
	if len(recs) != 1 || recs[0].Kind != model.Class {
		t.Errorf("show returned %+v", recs)
	}

	err := run([]string{"show", "--db", db, "src/square.js~Nope"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRunShowModes(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	db := filepath.Join(t.TempDir(), "docs.db")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--db", db}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	all := readIndex(t, filepath.Join(dir, "docs", "index.json"))

	stdout.Reset()
	if err := run([]string{"show", "--db", db, "--all"}, &stdout, &stderr); err != nil {
		t.Fatalf("show --all: %v", err)
	}
	var recs []*model.Record
	if err := json.Unmarshal(stdout.Bytes(), &recs); err != nil {
		t.Fatalf("show --all output: %v\n%s", err, stdout.String())
	}
	if len(recs) != len(all) {
		t.Errorf("show --all returned %d records, want %d", len(recs), len(all))
	}

	stdout.Reset()
	if err := run([]string{"show", "--db", db, "--id", "0"}, &stdout, &stderr); err != nil {
		t.Fatalf("show --id: %v", err)
	}
	recs = nil
	if err := json.Unmarshal(stdout.Bytes(), &recs); err != nil {
		t.Fatalf("show --id output: %v\n%s", err, stdout.String())
	}
	if len(recs) != 1 || recs[0].ID != 0 || recs[0].Kind != model.File {
		t.Errorf("show --id 0 returned %+v", recs)
	}

	stdout.Reset()
	if err := run([]string{"show", "--db", db}, &stdout, &stderr); err != nil {
		t.Fatalf("show summary: %v", err)
	}
	var summary struct {
		Source  string `json:"source"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("summary output: %v\n%s", err, stdout.String())
	}
	if summary.Records != len(all) || summary.Source == "" {
		t.Errorf("summary = %+v", summary)
	}

	err := run([]string{"show", "--db", db, "--all", "src/square.js~Square"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Errorf("expected combination error, got %v", err)
	}
}

func TestRunShowMissingDatabase(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "missing.db")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"show", "--db", db, "x"}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := os.Stat(db); err == nil {
		t.Error("show should not create a database")
	}
}

func TestRunSkipsBrokenFile(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "src/broken.js", "export class {\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "src/broken.js") {
		t.Errorf("broken file should be reported:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "failures=1") {
		t.Errorf("summary should count the failure:\n%s", stderr.String())
	}
}

func TestRunProgress(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-d", dir, "--progress"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "Extracting") {
		t.Errorf("missing progress bar:\n%s", stderr.String())
	}
}

func TestProgressBarCountsCalls(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	progress := progressBar(&buf)
	// Workers finish out of order.
	progress(2, 2, "b.js")
	progress(1, 2, "a.js")
	if !strings.Contains(buf.String(), "2/2") {
		t.Errorf("bar should reach 2/2:\n%s", buf.String())
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"version"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != "docextract dev\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestRunRejectsArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"somewhere"}, &stdout, &stderr); err == nil {
		t.Error("expected error for positional argument")
	}
}
