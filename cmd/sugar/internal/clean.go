package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/sugar/internal/config"
	"github.com/goplus/sugar/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [config]",
	Short: "Remove the build and output directories",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	path, err := configPath(args, "")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	p, err := project.New(filepath.Dir(path), cfg)
	if err != nil {
		return err
	}

	unlock := lockProject(p.Root)
	defer unlock()

	if err := p.Clean(); err != nil {
		return err
	}
	logger.Debug().Str("build_dir", p.BuildDir()).Str("output_dir", p.OutputDir()).Msg("removed")
	fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %s\n", p.Name())
	return nil
}
