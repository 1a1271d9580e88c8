package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the project file looked up when none is given.
const DefaultFile = "sugar.toml"

// Names lists the project file names recognized by Find, in lookup order.
var Names = []string{DefaultFile, "sugar.yaml", "sugar.yml"}

// Find returns the first project file present in dir. When none exists it
// returns the path of DefaultFile so that the caller reports a useful name.
func Find(dir string) string {
	for _, name := range Names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, DefaultFile)
}

// Load reads, decodes and validates the project file at path.
func Load(path string) (*Config, error) {
	c, err := Parse(path, nil)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a project file without validating it. If data is nil the
// file is read from disk. The format is chosen by the file extension:
// .yaml and .yml are YAML, everything else is TOML.
func Parse(file string, data []byte) (*Config, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewReader(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var c Config
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(reader)
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w: %w", file, ErrInvalidConfig, err)
		}
	default:
		md, err := toml.NewDecoder(reader).Decode(&c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", file, ErrInvalidConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%s: %w: unknown keys: %s", file, ErrInvalidConfig, strings.Join(keys, ", "))
		}
	}
	return &c, nil
}
