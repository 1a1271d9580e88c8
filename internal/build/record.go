package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Build directory layout:
//
//	buildDir/
//	  .sugar-build.json    # record of the last successful build
//	  <stem><objExt>       # one object per source
const recordFile = ".sugar-build.json"

// buildRecord describes the last successful build of a project.
type buildRecord struct {
	ID        string    `json:"id"`
	Compiler  string    `json:"compiler"`
	Artifact  string    `json:"artifact"`
	Objects   []string  `json:"objects"`
	BuildTime time.Time `json:"build_time"`
}

// loadRecord reads the record left in buildDir by the last successful build.
func loadRecord(buildDir string) (*buildRecord, error) {
	data, err := os.ReadFile(filepath.Join(buildDir, recordFile))
	if err != nil {
		return nil, err
	}
	var r buildRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func saveRecord(buildDir string, r *buildRecord) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(buildDir, recordFile), data, 0o644)
}
