// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"buildtime"`
}

// Info returns the build information stamped into the binary.
func Info() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Sha:       Sha,
		Buildtime: Buildtime,
	}
}
