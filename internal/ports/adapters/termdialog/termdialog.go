package termdialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/dips/internal/types"
)

// Adapter implements file dialogs as line prompts. An empty answer or end of
// input cancels the dialog.
type Adapter struct {
	in  *Lines
	out io.Writer
}

func New(in *Lines, out io.Writer) *Adapter {
	return &Adapter{in: in, out: out}
}

func (a *Adapter) PickOpenPath(ctx context.Context, opts types.OpenOptions) (types.Selection, error) {
	label := "Open file"
	if opts.Directory {
		label = "Open directory"
	}
	for {
		p, ok, err := a.ask(ctx, label)
		if err != nil || !ok {
			return types.Cancelled(), err
		}
		info, err := os.Stat(p)
		switch {
		case err != nil:
			fmt.Fprintf(a.out, "  cannot open %s: %v\n", p, err)
		case info.IsDir() != opts.Directory:
			if opts.Directory {
				fmt.Fprintf(a.out, "  %s is not a directory\n", p)
			} else {
				fmt.Fprintf(a.out, "  %s is a directory\n", p)
			}
		default:
			return types.Selected(p), nil
		}
	}
}

func (a *Adapter) PickSavePath(ctx context.Context, opts types.SaveOptions) (types.Selection, error) {
	label := opts.Title
	if label == "" {
		label = "Save file"
	}
	if hint := filterHint(opts.Filters); hint != "" {
		label += " " + hint
	}
	for {
		p, ok, err := a.ask(ctx, label)
		if err != nil || !ok {
			return types.Cancelled(), err
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		if ext == "" && len(opts.Filters) > 0 && len(opts.Filters[0].Extensions) > 0 {
			p += "." + opts.Filters[0].Extensions[0]
			ext = opts.Filters[0].Extensions[0]
		}
		if !opts.Allows(ext) {
			fmt.Fprintf(a.out, "  .%s is not an allowed extension\n", ext)
			continue
		}
		if info, err := os.Stat(filepath.Dir(p)); err != nil || !info.IsDir() {
			fmt.Fprintf(a.out, "  directory %s does not exist\n", filepath.Dir(p))
			continue
		}
		return types.Selected(p), nil
	}
}

func (a *Adapter) ask(ctx context.Context, label string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fmt.Fprintf(a.out, "%s (empty to cancel): ", label)
	line, err := a.in.ReadLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintln(a.out)
		return "", false, fmt.Errorf("read answer: %w", err)
	}
	line = strings.Trim(strings.TrimSpace(line), `"'`)
	if line == "" {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
		}
		return "", false, nil
	}
	p, err := expand(line)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

func expand(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}

func filterHint(filters []types.Filter) string {
	var parts []string
	for _, f := range filters {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, strings.Join(f.Extensions, ", ")))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
