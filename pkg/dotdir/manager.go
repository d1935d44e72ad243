// Package dotdir manages the .uidsl/ and ~/.uidsl directories.
//
// The checkout state records the revision the user has "checked out" so CLI
// commands like patch and codegen can work on its tree. The state is persisted
// as a JSON file in the .uidsl/ directory.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the project and user state directories.
	DirName = ".uidsl"

	// HomeEnv names a user-level state directory to use instead of ~/.uidsl.
	HomeEnv = "UIDSL_HOME"
)

// Manager resolves where uidsl keeps its local state.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the state directory, creating it when
// missing. Order of precedence:
//  1. overrideDir (--config-dir)
//  2. the nearest .uidsl/ in the working directory or an ancestor below $HOME
//  3. $UIDSL_HOME
//  4. ~/.uidsl/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir

	if dir == "" {
		if project, ok := m.ProjectDir(); ok {
			dir = project
		}
	}

	if dir == "" {
		dir = os.Getenv(HomeEnv)
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating uidsl directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// ProjectDir finds the .uidsl/ directory of the project containing the
// working directory, so commands run from a subdirectory share the project's
// checkout. The search stops at the home directory, whose .uidsl/ is the
// user-level fallback rather than a project.
func (m *Manager) ProjectDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	home, _ := os.UserHomeDir()

	for dir := cwd; ; {
		if home != "" && dir == home {
			return "", false
		}
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
