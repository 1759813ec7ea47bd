package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// dateLayouts accepted by the --from/--to flags, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q (want 2006-01-02 or RFC3339)", value)
}

// ensureWorkDirs creates the working subdirectories used by fetch.
func ensureWorkDirs(workDir string) error {
	for _, sub := range []string{"downloads", "libraries"} {
		if err := os.MkdirAll(filepath.Join(workDir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create work directory: %w", err)
		}
	}
	return nil
}
