// Package device persists the device ID used by the fivenine CLI.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

const fileName = "device-id"

// DefaultPath returns the device ID file under the user config directory,
// falling back to the temp directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "fivenine", fileName)
}

// Load returns the device ID stored at path. When the file is missing or
// does not hold a valid identifier a new one is minted with ids, written
// atomically and returned.
func Load(path string, ids fivenine.IDGenerator) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); fivenine.ValidIdentifier(id) {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("device: read %s: %w", path, err)
	}

	if ids == nil {
		ids = fivenine.DefaultIdGenerator()
	}
	id := ids.Generate()
	if !fivenine.ValidIdentifier(id) {
		return "", fmt.Errorf("device: generated ID %q is not a valid identifier", id)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("device: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(id+"\n")); err != nil {
		return "", fmt.Errorf("device: write %s: %w", path, err)
	}

	return id, nil
}
