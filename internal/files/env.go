package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const (
	// DefaultDirName defines the folder under the user's home directory.
	DefaultDirName = ".worklog"

	// HomeEnv overrides where the worklog and its backups live.
	HomeEnv = "WORKLOG_HOME"
)

// ResolveBasePath determines where worklog stores its files, defaulting to ~/.worklog.
// The location can be overridden by exporting WORKLOG_HOME.
func ResolveBasePath() (string, error) {
	if override, ok := os.LookupEnv(HomeEnv); ok {
		override = strings.TrimSpace(override)
		if override != "" {
			return ExpandPath(override)
		}
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}

// ExpandPath resolves a leading ~ against the user's home directory.
func ExpandPath(input string) (string, error) {
	return homedir.Expand(strings.TrimSpace(input))
}
