package zenity

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/forPelevin/dips/internal/types"
)

// exit status zenity uses when the user dismisses the dialog
const cancelExitCode = 1

// Adapter shows native GTK file dialogs through the zenity binary.
type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "zenity"
	}
	return &Adapter{bin: binPath}
}

func (a *Adapter) PickOpenPath(ctx context.Context, opts types.OpenOptions) (types.Selection, error) {
	args := []string{"--file-selection", "--title=Open File"}
	if opts.Directory {
		args = append(args, "--directory")
	}
	return a.pick(ctx, args)
}

func (a *Adapter) PickSavePath(ctx context.Context, opts types.SaveOptions) (types.Selection, error) {
	args := []string{"--file-selection", "--save", "--confirm-overwrite"}
	if opts.Title != "" {
		args = append(args, "--title="+opts.Title)
	}
	args = append(args, fileFilterArgs(opts.Filters)...)
	return a.pick(ctx, args)
}

func (a *Adapter) pick(ctx context.Context, args []string) (types.Selection, error) {
	cmd := exec.CommandContext(ctx, a.bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	b, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == cancelExitCode {
			return types.Cancelled(), nil
		}
		return types.Cancelled(), fmt.Errorf("zenity file selection: %w\n%s", err, stderr.String())
	}
	p := strings.TrimRight(string(b), "\r\n")
	if p == "" {
		return types.Cancelled(), nil
	}
	return types.Selected(p), nil
}

func fileFilterArgs(filters []types.Filter) []string {
	out := make([]string, 0, len(filters))
	for _, f := range filters {
		globs := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			globs = append(globs, "*."+ext)
		}
		out = append(out, fmt.Sprintf("--file-filter=%s | %s", f.Name, strings.Join(globs, " ")))
	}
	return out
}
