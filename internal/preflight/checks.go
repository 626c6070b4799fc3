package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/forPelevin/dips/internal/config"
)

// Result captures the outcome of a single check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBinary verifies that command resolves on PATH.
func CheckBinary(name, command string, optional bool) Result {
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Optional: optional, Detail: fmt.Sprintf("%s (not found)", command)}
	}
	return Result{Name: name, Passed: true, Optional: optional, Detail: resolved}
}

// Run evaluates everything the launcher needs for cfg. The data directory
// is created first so a fresh install passes.
func Run(cfg *config.Config) []Result {
	var results []Result
	if _, err := cfg.LocalDataDir(); err != nil {
		results = append(results, Result{Name: "Data directory", Detail: err.Error()})
	} else {
		results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	}
	results = append(results,
		CheckBinary("FFmpeg", cfg.Tools.FFmpeg, false),
		CheckBinary("DiPs", cfg.Tools.Dips, false),
		CheckBinary("Zenity", cfg.Tools.Zenity, cfg.Dialog.Backend != config.DialogZenity),
	)
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
