package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/docextract/internal/comment"
	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/plugin"
)

func newInitCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + config.FileName,
		Long: `Write a default configuration file. path defaults to
<dir>/` + config.FileName + `. An existing file is left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			} else {
				dir, err := g.projectDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.FileName)
			}
			return runInit(path, dryRun, force, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runInit(path string, dryRun, force bool, stdout, stderr io.Writer) error {
	content, err := generateConfig()
	if err != nil {
		return err
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, content)
		return nil
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
	return nil
}

// exampleTags is the doc comment shown in the header of a new config file.
var exampleTags = []model.Tag{
	{Name: "@desc", Value: "Greets people."},
	{Name: "@param", Value: "{string} name - who to greet"},
	{Name: "@return", Value: "{string} the greeting"},
}

// generateConfig renders the default config as commented YAML.
func generateConfig() (string, error) {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	var b strings.Builder
	b.WriteString("# docextract configuration.\n")
	b.WriteString("#\n")
	b.WriteString("# Every file under source matching an include glob and no exclude glob\n")
	b.WriteString("# is read. Entities are documented with block comments such as:\n")
	b.WriteString("#\n")
	for _, line := range strings.Split("/*"+comment.Build(exampleTags)+"*/", "\n") {
		b.WriteString("#   " + line + "\n")
	}
	b.WriteString("#   function greet(name) {}\n")
	b.WriteString("#\n")
	b.WriteString("# Plugins: " + strings.Join(plugin.Names(), ", ") + ".\n\n")
	b.Write(data)
	return b.String(), nil
}
