package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goplus/sugar/internal/build"
	"github.com/goplus/sugar/internal/toolchain"

	_ "github.com/goplus/sugar/internal/toolchain/gcc"
	_ "github.com/goplus/sugar/internal/toolchain/msvc"
)

var (
	verbose  bool
	logLevel string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "sugar",
	Short: "sugar builds C and C++ projects",
	Long: `sugar compiles every source of a project with MSVC, GCC or Clang and
links the objects into an executable, a static library or a shared library,
as described by the project's sugar.toml.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every subprocess invocation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// printError reports err with its stage and, for tool failures, the tool's
// own diagnostic text.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	var be *build.Error
	if !errors.As(err, &be) {
		fmt.Fprintf(w, "%s %v\n", red("error:"), err)
		return
	}
	header := string(be.Stage) + " failed"
	if be.Source != "" {
		header += " (" + be.Source + ")"
	}
	var ee *toolchain.ExecError
	if !errors.As(err, &ee) {
		fmt.Fprintf(w, "%s %v\n", red(header+":"), be.Err)
		return
	}
	// The diagnostic goes on its own lines, verbatim.
	short := *ee
	short.Diagnostic = ""
	fmt.Fprintf(w, "%s %v\n", red(header+":"), &short)
	if ee.Diagnostic != "" {
		fmt.Fprintln(w, ee.Diagnostic)
	}
}
