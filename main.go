// docextract extracts ESDoc-style documentation records from JavaScript sources.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/generate"
	"github.com/phobologic/docextract/internal/graph"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/plugin"
	"github.com/phobologic/docextract/internal/ranking"
	"github.com/phobologic/docextract/internal/store"
	"github.com/phobologic/docextract/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

type globalFlags struct {
	configPath string
	dir        string
	verbose    bool
}

type generateFlags struct {
	dbPath     string
	format     string
	progress   bool
	maxClasses int
	symbol     string
	file       string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	gf := &generateFlags{}

	root := &cobra.Command{
		Use:   "docextract",
		Short: "Extract documentation records from JavaScript sources",
		Long: `docextract reads the doc comments of a JavaScript source tree and writes
one record per documented entity (classes, methods, functions, variables,
typedefs, externals) to index.json in the destination directory.

Example usage:
  docextract                          # generate with ./.docextract.yml
  docextract -c conf.yml --db docs.db # also write a lookup database
  docextract --format toon            # print a summary table
  docextract show --db docs.db 'src/a.js~A'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, g, gf, stdout, stderr)
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default is <dir>/"+config.FileName+")")
	root.PersistentFlags().StringVarP(&g.dir, "dir", "d", "", "project directory (default is current directory)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	addGenerateFlags(root, gf)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Extract records and write index.json (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, g, gf, stdout, stderr)
		},
	}
	addGenerateFlags(generateCmd, gf)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(stdout, "docextract %s\n", version)
			return err
		},
	}

	root.AddCommand(generateCmd, newInitCmd(g, stdout, stderr), newShowCmd(g, stdout), versionCmd)
	return root
}

func addGenerateFlags(cmd *cobra.Command, gf *generateFlags) {
	cmd.Flags().StringVar(&gf.dbPath, "db", "", "write records to this bolt database (overrides the store key)")
	cmd.Flags().StringVar(&gf.format, "format", "", "also print records to stdout: json or toon")
	cmd.Flags().BoolVar(&gf.progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().IntVar(&gf.maxClasses, "max-classes", 0, "toon: keep only the N most central classes")
	cmd.Flags().StringVar(&gf.symbol, "symbol", "", "toon: keep records whose name contains this")
	cmd.Flags().StringVar(&gf.file, "file", "", "toon: keep records from files whose path contains this")
}

// projectDir returns the directory relative config paths are resolved
// against: the config file's directory when one is named, else --dir.
func (g *globalFlags) projectDir() (string, error) {
	if g.configPath != "" {
		return filepath.Abs(filepath.Dir(g.configPath))
	}
	if g.dir != "" {
		return filepath.Abs(g.dir)
	}
	return os.Getwd()
}

func (g *globalFlags) loadConfig() (*config.Config, string, error) {
	dir, err := g.projectDir()
	if err != nil {
		return nil, "", fmt.Errorf("resolving project directory: %w", err)
	}
	var cfg *config.Config
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadFromDir(dir)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, dir, nil
}

func runGenerate(cmd *cobra.Command, g *globalFlags, gf *generateFlags, stdout, stderr io.Writer) error {
	switch gf.format {
	case "", "json", "toon":
	default:
		return fmt.Errorf("unknown format %q (want json or toon)", gf.format)
	}

	cfg, dir, err := g.loadConfig()
	if err != nil {
		return err
	}
	log := cfg.Logging.NewLogger(stderr, g.verbose)

	chain, err := plugin.FromConfig(cfg.Plugins)
	if err != nil {
		return err
	}

	opts := generate.Options{
		Dir:      dir,
		Config:   cfg,
		Plugins:  chain,
		Reporter: diag.NewLogger(log),
		Logger:   log,
	}
	if gf.progress {
		opts.Progress = progressBar(stderr)
	}

	res, err := generate.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	log.Info("generated",
		"files", res.Files,
		"records", len(res.Records),
		"failures", res.Failures,
		"diagnostics", res.Diagnostics)

	dest := resolvePath(dir, cfg.Destination)
	if err := writeIndex(dest, res.Records); err != nil {
		return err
	}

	dbPath := gf.dbPath
	if dbPath == "" && cfg.Store != "" {
		dbPath = resolvePath(dir, cfg.Store)
	}
	if dbPath != "" {
		if err := saveStore(dbPath, resolvePath(dir, cfg.Source), res.Records); err != nil {
			return err
		}
		log.Debug("wrote store", "path", dbPath)
	}

	chain.HandleComplete(res.Records)

	switch gf.format {
	case "json":
		return writeJSON(stdout, res.Records)
	case "toon":
		_, err := fmt.Fprintln(stdout, summarize(filepath.Base(dir), res.Records, gf))
		return err
	}
	return nil
}

func summarize(project string, recs []*model.Record, gf *generateFlags) string {
	if gf.file != "" {
		recs = ranking.FilterByFile(recs, gf.file)
	}
	if gf.symbol != "" {
		recs = ranking.FilterByName(recs, gf.symbol, true)
	}
	g := graph.Build(recs)
	ranks := g.Rank()
	if gf.maxClasses > 0 {
		recs = ranking.SelectClasses(recs, ranks, gf.maxClasses)
		g = graph.Build(recs)
	}
	return toon.Encode(&toon.Summary{
		Project: project,
		Records: recs,
		Graph:   g,
		Ranks:   ranks,
	})
}

func writeIndex(dest string, recs []*model.Record) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	f, err := os.Create(filepath.Join(dest, "index.json"))
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := writeJSON(f, recs); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	return f.Close()
}

func writeJSON(w io.Writer, recs []*model.Record) error {
	if recs == nil {
		recs = []*model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func saveStore(path, source string, recs []*model.Record) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	if err := s.Replace(source, recs); err != nil {
		_ = s.Close()
		return fmt.Errorf("writing store: %w", err)
	}
	return s.Close()
}

// progressBar returns a callback drawing a bar on w. The bar is created on
// the first call, once the file count is known.
func progressBar(w io.Writer) generate.ProgressFunc {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(_, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Extracting"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					_, _ = fmt.Fprintln(w)
				}),
			)
		}
		_ = bar.Add(1)
	}
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
