package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/goplus/sugar/internal/toolchain"
)

// Version is set at link time with -ldflags "-X".
var Version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sugar version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sugar %s %s/%s (compilers: %v)\n",
			version(), runtime.GOOS, runtime.GOARCH, toolchain.Names())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
