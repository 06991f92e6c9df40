// Package generate runs the extraction pipeline over a source tree:
// discovery, parsing, record extraction, deduplication and plugin hooks.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/dedupe"
	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/discover"
	"github.com/phobologic/docextract/internal/extract"
	"github.com/phobologic/docextract/internal/lang"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/parse"
	"github.com/phobologic/docextract/internal/pathresolve"
	"github.com/phobologic/docextract/internal/plugin"
	"github.com/phobologic/docextract/internal/syntax"
)

// ProgressFunc is called after each file is processed. It may be called
// from several goroutines at once.
type ProgressFunc func(done, total int, path string)

// Options configures one run.
type Options struct {
	// Dir is the directory relative config paths are resolved against.
	// Empty means the working directory.
	Dir      string
	Config   *config.Config
	Plugins  plugin.Chain
	Reporter diag.Reporter
	Logger   *slog.Logger
	Progress ProgressFunc
}

// Result is the outcome of a run.
type Result struct {
	Records     []*model.Record
	Files       int
	Failures    int
	Diagnostics int
	// Run maps record ids back to the syntax nodes they were built from.
	Run *extract.Run
}

type packageInfo struct {
	Name string `json:"name"`
	Main string `json:"main"`
}

// Run discovers and processes every source file named by opts.Config and
// returns the deduplicated record list. Files that fail to parse or
// extract are reported and skipped; only configuration, discovery and
// cancellation errors abort the run.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	cfg, err := opts.Plugins.HandleConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	counter := &countingReporter{}
	rep := diag.Reporter(counter)
	if opts.Reporter != nil {
		rep = diag.Tee(opts.Reporter, counter)
	}

	g := &generator{
		cfg:      cfg,
		source:   resolve(opts.Dir, cfg.Source),
		plugins:  opts.Plugins,
		rep:      rep,
		log:      log,
		progress: opts.Progress,
		run:      extract.NewRun(),
	}
	if cfg.OutputAST {
		g.astDir = filepath.Join(resolve(opts.Dir, cfg.Destination), "ast", "source")
	}

	if cfg.Package != "" {
		pkgPath := resolve(opts.Dir, cfg.Package)
		pkg, err := readPackage(pkgPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			log.Warn("ignoring package.json", "path", pkgPath, "err", err)
		default:
			g.pkgName = pkg.Name
			if pkg.Main != "" {
				g.mainFile = filepath.Join(filepath.Dir(pkgPath), pkg.Main)
			}
		}
	}

	entries, err := discover.Files(g.source, discover.Options{
		Includes: cfg.Includes,
		Excludes: cfg.Excludes,
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", cfg.Source, err)
	}
	entries = g.filterBySize(entries)
	log.Debug("discovered source files", "source", g.source, "count", len(entries))

	recs, err := g.files(ctx, entries)
	if err != nil {
		return nil, err
	}

	if cfg.Index != "" {
		recs = append(recs, g.indexRecord(resolve(opts.Dir, cfg.Index), cfg.Index))
	}
	if cfg.Package != "" {
		recs = append(recs, g.packageRecord(resolve(opts.Dir, cfg.Package)))
	}

	recs = dedupe.Resolve(recs)
	recs = opts.Plugins.HandleDocs(recs)
	recordsTotal.Add(ctx, int64(len(recs)))

	return &Result{
		Records:     recs,
		Files:       len(entries),
		Failures:    int(g.failures.Load()),
		Diagnostics: int(counter.n.Load()),
		Run:         g.run,
	}, nil
}

type generator struct {
	cfg      *config.Config
	source   string
	pkgName  string
	mainFile string
	astDir   string
	plugins  plugin.Chain
	rep      diag.Reporter
	log      *slog.Logger
	progress ProgressFunc
	run      *extract.Run

	done     atomic.Int64
	failures atomic.Int64
}

// files processes entries concurrently. Records come back grouped by file
// in discovery order.
func (g *generator) files(ctx context.Context, entries []discover.FileEntry) ([]*model.Record, error) {
	results := make([][]*model.Record, len(entries))

	limit := g.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, e := range entries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := g.file(ctx, e)
			if err != nil {
				return err
			}
			results[i] = recs
			if g.progress != nil {
				g.progress(int(g.done.Add(1)), len(entries), e.Path)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []*model.Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// file processes one source file. A nil error with nil records means the
// file was reported and skipped.
func (g *generator) file(ctx context.Context, e discover.FileEntry) ([]*model.Record, error) {
	ctx, span := tracer.Start(ctx, "generate.file",
		trace.WithAttributes(attribute.String("path", e.Path)))
	defer span.End()

	abs := filepath.Join(g.source, filepath.FromSlash(e.Path))
	res, err := pathresolve.New(g.source, abs, g.pkgName, g.mainFile)
	if err != nil {
		return nil, err
	}
	path := res.FilePath()

	data, err := os.ReadFile(abs)
	if err != nil {
		g.fail(ctx, span, path, "", err)
		return nil, nil
	}
	code := g.plugins.HandleCode(path, string(data))

	l, ok := lang.Languages[e.Language]
	if !ok {
		g.fail(ctx, span, path, code, fmt.Errorf("no grammar for language %q", e.Language))
		return nil, nil
	}
	parser := l.NewParser()
	defer parser.Close()

	start := time.Now()
	prog, err := parse.File(ctx, parser, []byte(code), path)
	parseDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("language", e.Language)))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.fail(ctx, span, path, code, err)
		return nil, nil
	}

	g.plugins.HandleAST(path, prog)

	recs, err := g.run.File(prog, res, g.rep)
	if err != nil {
		g.fail(ctx, span, path, code, err)
		return nil, nil
	}
	if g.astDir != "" {
		if err := writeAST(filepath.Join(g.astDir, filepath.FromSlash(e.Path)+".json"), prog); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("records", len(recs)))
	g.log.Debug("extracted", "file", path, "records", len(recs))
	return recs, nil
}

func (g *generator) fail(ctx context.Context, span trace.Span, path, source string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	failuresTotal.Add(ctx, 1)
	g.failures.Add(1)
	g.rep.Report(diag.AtError(path, source, err))
}

func (g *generator) filterBySize(entries []discover.FileEntry) []discover.FileEntry {
	if g.cfg.MaxFileSize <= 0 {
		return entries
	}
	kept := entries[:0:0]
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(g.source, filepath.FromSlash(e.Path)))
		if err != nil {
			continue
		}
		if info.Size() > g.cfg.MaxFileSize {
			g.log.Warn("skipping large file", "file", e.Path, "size", info.Size(), "max", g.cfg.MaxFileSize)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// indexRecord builds the record for the README. A missing file still
// yields a record, with empty content.
func (g *generator) indexRecord(path, name string) *model.Record {
	var content string
	if data, err := os.ReadFile(path); err != nil {
		g.log.Warn("index file not found, check the index key", "path", path, "err", err)
	} else {
		content = string(data)
	}
	return &model.Record{
		ID:       g.run.NextID(),
		Kind:     model.Index,
		Name:     name,
		Longname: absSlash(path),
		Content:  content,
		Access:   model.Public,
		Static:   true,
	}
}

// packageRecord builds the record for package.json. An unreadable file
// yields a record with no content, path or name.
func (g *generator) packageRecord(path string) *model.Record {
	rec := &model.Record{
		ID:     g.run.NextID(),
		Kind:   model.PackageJSON,
		Access: model.Public,
		Static: true,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		g.log.Debug("package.json not readable", "path", path, "err", err)
		return rec
	}
	rec.Content = string(data)
	rec.Longname = absSlash(path)
	rec.Name = filepath.Base(path)
	return rec
}

func readPackage(path string) (*packageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pkg packageInfo
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pkg, nil
}

func writeAST(path string, prog *syntax.Program) error {
	data, err := syntax.MarshalIndent(prog)
	if err != nil {
		return fmt.Errorf("encoding ast: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing ast: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing ast: %w", err)
	}
	return nil
}

func absSlash(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(path)
}

func resolve(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

type countingReporter struct {
	n atomic.Int64
}

func (c *countingReporter) Report(diag.Diagnostic) {
	c.n.Add(1)
}
