package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goplus/sugar/internal/config"
	"github.com/goplus/sugar/internal/toolchain"
)

var (
	initCompiler string
	initType     string
	initFormat   string
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new project in the current directory",
	Long: `Init writes a project file and a first source file to the current
directory. The project name defaults to the directory name. Existing files are
never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initCompiler, "compiler", defaultCompiler(), "Compiler backend (msvc, gcc or clang)")
	initCmd.Flags().StringVar(&initType, "type", string(config.Executable), "Project type (exe, static or shared)")
	initCmd.Flags().StringVar(&initFormat, "format", "toml", "Project file format (toml or yaml)")
	rootCmd.AddCommand(initCmd)
}

func defaultCompiler() string {
	if runtime.GOOS == "windows" {
		return "msvc"
	}
	return "gcc"
}

// scaffold is the subset of config.Config written by init.
type scaffold struct {
	Name        string             `toml:"name" yaml:"name"`
	Version     string             `toml:"version" yaml:"version"`
	Compiler    string             `toml:"compiler" yaml:"compiler"`
	ProjectType config.ProjectType `toml:"project_type" yaml:"project_type"`
	IncludeDirs []string           `toml:"include_dirs" yaml:"include_dirs"`
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	name := filepath.Base(dir)
	if len(args) == 1 {
		name = args[0]
	}

	s := scaffold{
		Name:        name,
		Version:     "0.1.0",
		Compiler:    initCompiler,
		ProjectType: config.ProjectType(initType),
		IncludeDirs: []string{"include"},
	}
	if !slices.Contains(toolchain.Names(), initCompiler) {
		return fmt.Errorf("%w %q (available: %s)", toolchain.ErrUnknownCompiler, initCompiler, strings.Join(toolchain.Names(), ", "))
	}
	cfg := config.Config{Name: s.Name, Version: s.Version, Compiler: s.Compiler, ProjectType: s.ProjectType}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var file string
	var data []byte
	switch initFormat {
	case "toml":
		file = config.DefaultFile
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return err
		}
		data = buf.Bytes()
	case "yaml":
		file = "sugar.yaml"
		if data, err = yaml.Marshal(s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown --format %q (want toml or yaml)", initFormat)
	}

	for _, existing := range config.Names {
		if _, err := os.Stat(existing); err == nil {
			return fmt.Errorf("%s already exists", existing)
		}
	}
	source, code := starterSource(name, s.ProjectType)
	if _, err := os.Stat(source); err == nil {
		return fmt.Errorf("%s already exists", source)
	}

	for _, d := range []string{"src", "include"} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(source, []byte(code), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return err
	}

	green := color.New(color.FgHiGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s project %s\n", s.ProjectType, green(name))
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s to build it.\n", green("sugar build"))
	return nil
}

// starterSource returns the path and contents of the first source file.
func starterSource(name string, typ config.ProjectType) (path, code string) {
	if typ == config.Executable {
		return filepath.Join("src", "main.c"), `#include <stdio.h>

int main(void) {
    printf("hello from ` + name + `\n");
    return 0;
}
`
	}
	return filepath.Join("src", "lib.c"), `int answer(void) {
    return 42;
}
`
}
