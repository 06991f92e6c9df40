package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/store"
)

type showFlags struct {
	dbPath string
	all    bool
	id     int64
}

func newShowCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	sf := &showFlags{id: -1}

	cmd := &cobra.Command{
		Use:   "show [longname]",
		Short: "Print stored records as JSON",
		Long: `Print the records stored under a longname, the record with a given id
(--id), or every record (--all). Without any of these, print where the
database was generated from and how many records it holds. The database is
the one written by "docextract --db" or the store key of the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if sf.dbPath == "" {
				cfg, dir, err := g.loadConfig()
				if err != nil {
					return err
				}
				if cfg.Store == "" {
					return errors.New("no database: pass --db or set store in the config")
				}
				sf.dbPath = resolvePath(dir, cfg.Store)
			}
			longname := ""
			if len(args) > 0 {
				longname = args[0]
			}
			return runShow(sf, longname, stdout)
		},
	}
	cmd.Flags().StringVar(&sf.dbPath, "db", "", "bolt database written by generate")
	cmd.Flags().BoolVar(&sf.all, "all", false, "print every stored record")
	cmd.Flags().Int64Var(&sf.id, "id", -1, "print the record with this id")
	cmd.MarkFlagsMutuallyExclusive("all", "id")
	return cmd
}

func runShow(sf *showFlags, longname string, stdout io.Writer) error {
	if longname != "" && (sf.all || sf.id >= 0) {
		return errors.New("a longname cannot be combined with --all or --id")
	}
	if _, err := os.Stat(sf.dbPath); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	s, err := store.Open(sf.dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	var recs []*model.Record
	switch {
	case sf.all:
		recs, err = s.All()
	case sf.id >= 0:
		var rec *model.Record
		rec, err = s.Get(sf.id)
		recs = []*model.Record{rec}
	case longname != "":
		recs, err = s.Lookup(longname)
	default:
		return showSummary(s, stdout)
	}
	if err != nil {
		return err
	}

	return writeJSON(stdout, recs)
}

func showSummary(s *store.Store, stdout io.Writer) error {
	source, err := s.Source()
	if err != nil {
		return err
	}
	recs, err := s.All()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Source  string `json:"source"`
		Records int    `json:"records"`
	}{source, len(recs)})
}
