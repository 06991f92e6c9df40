package generate

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/plugin"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "src/a.js", "/** A class */\nexport default class A {\n  /** run it */\n  run() {}\n}\n")
	writeFile(t, dir, "src/util/b.js", "import A from '../a.js';\n/** B */\nexport class B extends A {}\n")
	writeFile(t, dir, "README.md", "# demo\n")
	writeFile(t, dir, "package.json", `{"name": "demo", "main": "src/a.js"}`)
	return dir
}

func byLongname(recs []*model.Record, longname string) *model.Record {
	for _, r := range recs {
		if r.Longname == longname {
			return r
		}
	}
	return nil
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := project(t)
	res, err := Run(context.Background(), Options{Dir: dir, Config: config.Default()})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Zero(t, res.Failures)
	assert.Zero(t, res.Diagnostics)

	kinds := make([]model.Kind, len(res.Records))
	for i, r := range res.Records {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []model.Kind{
		model.File, model.Class, model.Method,
		model.File, model.Class,
		model.Index, model.PackageJSON,
	}, kinds)

	a := byLongname(res.Records, "src/a.js~A")
	require.NotNil(t, a)
	assert.Equal(t, "demo", a.ImportPath)
	assert.Equal(t, "A", a.ImportStyle)

	b := byLongname(res.Records, "src/util/b.js~B")
	require.NotNil(t, b)
	assert.Equal(t, "demo/src/util/b.js", b.ImportPath)
	assert.Equal(t, []string{"src/a.js~A"}, b.Extends)

	index := res.Records[5]
	assert.Equal(t, "./README.md", index.Name)
	assert.Equal(t, "# demo\n", index.Content)
	assert.Equal(t, model.Public, index.Access)
	assert.True(t, index.Static)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "README.md")), index.Longname)

	pkg := res.Records[6]
	assert.Equal(t, "package.json", pkg.Name)

	seen := make(map[int64]bool)
	for _, r := range res.Records {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, int64(len(res.Records)), res.Run.Len())
}

func TestRunSkipsBrokenFiles(t *testing.T) {
	t.Parallel()

	dir := project(t)
	writeFile(t, dir, "src/broken.js", "class {\n")

	var col diag.Collector
	res, err := Run(context.Background(), Options{Dir: dir, Config: config.Default(), Reporter: &col})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, 1, res.Diagnostics)
	require.Equal(t, 1, col.Len())
	d := col.Diagnostics()[0]
	assert.Equal(t, "src/broken.js", d.File)
	assert.ErrorIs(t, d.Err, diag.ErrParseFailed)
	assert.NotNil(t, byLongname(res.Records, "src/a.js~A"))
}

func TestRunWithoutIndexOrPackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/a.js", "/** f */\nexport function f() {}\n")

	res, err := Run(context.Background(), Options{Dir: dir, Config: config.Default()})
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	assert.Equal(t, "./src/a.js", res.Records[1].ImportPath)

	index := res.Records[2]
	assert.Equal(t, model.Index, index.Kind)
	assert.Equal(t, "./README.md", index.Name)
	assert.Empty(t, index.Content)

	pkg := res.Records[3]
	assert.Equal(t, model.PackageJSON, pkg.Kind)
	assert.Empty(t, pkg.Name)
	assert.Empty(t, pkg.Longname)
	assert.Empty(t, pkg.Content)
}

func TestRunOutputAST(t *testing.T) {
	t.Parallel()

	dir := project(t)
	_, err := Run(context.Background(), Options{Dir: dir, Config: config.Default()})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "docs", "ast", "source", "a.js.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "Program"`)
	assert.FileExists(t, filepath.Join(dir, "docs", "ast", "source", "util", "b.js.json"))
}

func TestRunOutputASTDisabled(t *testing.T) {
	t.Parallel()

	dir := project(t)
	cfg := config.Default()
	cfg.OutputAST = false
	_, err := Run(context.Background(), Options{Dir: dir, Config: cfg})
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "docs", "ast"))
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := project(t)
	cfg := config.Default()
	cfg.MaxFileSize = 65

	res, err := Run(context.Background(), Options{Dir: dir, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Nil(t, byLongname(res.Records, "src/a.js~A"))
	assert.NotNil(t, byLongname(res.Records, "src/util/b.js~B"))
}

func TestRunPlugins(t *testing.T) {
	t.Parallel()

	dir := project(t)
	writeFile(t, dir, "src/c.js", "export function hidden() {}\n")

	chain, err := plugin.FromConfig([]config.PluginConfig{{Name: "drop-undocumented"}})
	require.NoError(t, err)

	res, err := Run(context.Background(), Options{Dir: dir, Config: config.Default(), Plugins: chain})
	require.NoError(t, err)
	assert.Nil(t, byLongname(res.Records, "src/c.js~hidden"))
	assert.NotNil(t, byLongname(res.Records, "src/a.js~A"))
}

func TestRunProgress(t *testing.T) {
	t.Parallel()

	dir := project(t)
	var calls atomic.Int64
	var last atomic.Int64
	cfg := config.Default()
	cfg.Concurrency = 1

	_, err := Run(context.Background(), Options{
		Dir:    dir,
		Config: cfg,
		Progress: func(done, total int, _ string) {
			calls.Add(1)
			last.Store(int64(done))
			assert.Equal(t, 2, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(2), last.Load())
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Source = ""
	_, err := Run(context.Background(), Options{Dir: t.TempDir(), Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRunBadPackageJSON(t *testing.T) {
	t.Parallel()

	dir := project(t)
	writeFile(t, dir, "package.json", "{")
	res, err := Run(context.Background(), Options{Dir: dir, Config: config.Default()})
	require.NoError(t, err)

	a := byLongname(res.Records, "src/a.js~A")
	require.NotNil(t, a)
	assert.Equal(t, "./src/a.js", a.ImportPath)

	pkg := res.Records[len(res.Records)-1]
	assert.Equal(t, model.PackageJSON, pkg.Kind)
	assert.Equal(t, "{", pkg.Content)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{Dir: project(t), Config: config.Default()})
	assert.ErrorIs(t, err, context.Canceled)
}
