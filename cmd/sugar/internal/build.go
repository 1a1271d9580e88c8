package internal

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/spf13/cobra"

	"github.com/goplus/sugar/internal/build"
	"github.com/goplus/sugar/internal/config"
	"github.com/goplus/sugar/internal/env"
)

var (
	buildConfig  string
	buildTimeout time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build [config]",
	Short: "Compile and link the project",
	Long: `Build compiles every source file of the project and links the objects
into the configured artifact. The project file defaults to sugar.toml in the
current directory; a directory argument means the project file inside it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildConfig, "config", "c", "", "Path to the project file")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 0, "Time limit for each compiler or linker run (overrides the project file)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	path, err := configPath(args, buildConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	unlock := lockProject(filepath.Dir(path))
	defer unlock()

	b := build.NewBuilder(build.Options{
		Logger:  logger,
		Timeout: buildTimeout,
	})
	res, err := b.Build(ctx, path)
	if err != nil {
		return err
	}

	green := color.New(color.FgHiGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d objects, %s)\n",
		green("built"), res.Artifact, len(res.Objects), res.Elapsed.Round(time.Millisecond))
	return nil
}

// configPath picks the project file from the positional argument or the
// --config flag, falling back to the project file in the working directory.
func configPath(args []string, flag string) (string, error) {
	path := flag
	if len(args) == 1 {
		if flag != "" && flag != args[0] {
			return "", fmt.Errorf("project file given twice: %s and --config %s", args[0], flag)
		}
		path = args[0]
	}
	if path == "" {
		path = config.Find(".")
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = config.Find(path)
	}
	return filepath.Abs(path)
}

// lockProject serializes builds of the project rooted at root across
// processes. Builds go ahead unlocked when the lock cannot be taken.
func lockProject(root string) (unlock func()) {
	path, err := env.LockFile(root)
	if err == nil {
		logger.Debug().Str("lock", path).Msg("waiting for build lock")
		unlock, err = lockedfile.MutexAt(path).Lock()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("building without a lock")
		return func() {}
	}
	return unlock
}
