// Package registrypath locates the component registry document.
package registrypath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no registry document can be located.
var ErrNotFound = errors.New("could not find a component registry; pass --registry")

// ResolveRegistryPath returns override when set, then UIDSL_REGISTRY_PATH,
// then the first registry file found in the working directory, the local
// .uidsl/ directory, or ~/.uidsl/.
func ResolveRegistryPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("UIDSL_REGISTRY_PATH")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range registryCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

// Locate resolves a configured registry path. When configured is the
// default file name and no such file exists, the usual locations are
// searched instead.
func Locate(configured, defaultName string) (string, error) {
	if configured == "" || configured == defaultName {
		if _, err := os.Stat(defaultName); err != nil {
			return ResolveRegistryPath("")
		}
		return defaultName, nil
	}
	return ResolveRegistryPath(configured)
}

func registryCandidates() []string {
	names := []string{"registry.json", "registry.yaml", "registry.yml"}

	candidates := append([]string{}, names...)
	for _, name := range names {
		candidates = append(candidates, filepath.Join(".uidsl", name))
	}

	home, err := os.UserHomeDir()
	if err == nil {
		for _, name := range names {
			candidates = append(candidates, filepath.Join(home, ".uidsl", name))
		}
	}

	return candidates
}
