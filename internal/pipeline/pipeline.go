package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/dips/internal/asset"
	"github.com/forPelevin/dips/internal/config"
	"github.com/forPelevin/dips/internal/domain/dips"
	"github.com/forPelevin/dips/internal/history"
	"github.com/forPelevin/dips/internal/ports"
	"github.com/forPelevin/dips/internal/ports/adapters/dipscli"
	"github.com/forPelevin/dips/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/dips/internal/ports/adapters/termdialog"
	"github.com/forPelevin/dips/internal/ports/adapters/zenity"
	"github.com/forPelevin/dips/internal/usecase"
)

// Backend joins a thumbnailer and a converter into one ports.Backend.
type Backend struct {
	ports.Thumbnailer
	ports.Converter
}

// Env carries the process-wide pieces every entry point needs.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Props  dips.Properties
	In     *termdialog.Lines
	Out    io.Writer
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// NewBackend builds the ffmpeg thumbnailer and dips converter from config.
func NewBackend(env Env) Backend {
	cfg := env.Config
	return Backend{
		Thumbnailer: ffmpeg.New(cfg.Tools.FFmpeg, cfg.Thumbnail.Height, cfg.Thumbnail.Quality),
		Converter:   dipscli.New(cfg.Tools.Dips, env.Props),
	}
}

// NewDialogs returns the dialog adapter selected by dialog.backend.
func NewDialogs(env Env) (ports.Dialogs, error) {
	switch env.Config.Dialog.Backend {
	case config.DialogZenity:
		return zenity.New(env.Config.Tools.Zenity), nil
	case config.DialogTerminal, "":
		if env.In == nil || env.Out == nil {
			return nil, errors.New("terminal dialogs need an input and an output stream")
		}
		return termdialog.New(env.In, env.Out), nil
	default:
		return nil, fmt.Errorf("unsupported dialog backend %q", env.Config.Dialog.Backend)
	}
}

// OpenHistory opens the dispatch journal and wraps backend with it.
func OpenHistory(ctx context.Context, env Env, backend ports.Backend) (ports.Backend, *history.Store, error) {
	store, err := history.Open(ctx, env.Config.Paths.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return history.NewBackend(backend, store, env.logger()), store, nil
}

// NewSession wires a launcher session with journaled backend and configured
// dialogs. The returned closer releases the journal.
func NewSession(ctx context.Context, env Env) (*usecase.Session, func() error, error) {
	dialogs, err := NewDialogs(env)
	if err != nil {
		return nil, nil, err
	}
	backend, store, err := OpenHistory(ctx, env, NewBackend(env))
	if err != nil {
		return nil, nil, err
	}
	s := usecase.New(usecase.Deps{
		Dialogs: dialogs,
		Backend: backend,
		DataDir: env.Config,
		Logger:  env.logger(),
	})
	return s, store.Close, nil
}

// Thumbnail renders the preview for input into the cache slot and returns
// its locator.
func Thumbnail(ctx context.Context, env Env, backend ports.Thumbnailer, input string) (string, error) {
	in, err := validateInput(input)
	if err != nil {
		return "", err
	}
	dir, err := env.Config.LocalDataDir()
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(dir, usecase.ThumbnailFile)
	env.logger().Info("generating thumbnail", "input", in, "cache", cachePath)
	if err := backend.GenerateThumbnail(ctx, in, cachePath); err != nil {
		return "", err
	}
	return asset.Locator(cachePath), nil
}

type ConvertInput struct {
	Input  string
	Output string
	// OutDir receives a derived file name when Output is empty.
	OutDir string
}

// Convert runs one headless conversion and returns the output path used.
func Convert(ctx context.Context, env Env, backend ports.Converter, in ConvertInput) (string, error) {
	input, err := validateInput(in.Input)
	if err != nil {
		return "", err
	}
	output := strings.TrimSpace(in.Output)
	if output == "" {
		outDir := in.OutDir
		if outDir == "" {
			outDir = "out"
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", err
		}
		output = DefaultOutputPath(outDir, input, time.Now().UTC())
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	if !usecase.SaveOptions.Allows(ext) {
		return "", fmt.Errorf("output %q: extension must be one of avi, mp4, mov", output)
	}
	if output, err = filepath.Abs(output); err != nil {
		return "", err
	}

	env.logger().Info("dispatching conversion", "input", input, "output", output)
	if err := backend.RunConversion(ctx, input, output); err != nil {
		return "", err
	}
	return output, nil
}

func validateInput(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", errors.New("input file not specified")
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input %s is a directory", abs)
	}
	return abs, nil
}

// DefaultOutputPath derives a collision-resistant output file for input.
func DefaultOutputPath(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	seed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(seed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-dips-%s-%s.mp4", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Thumbnailer = (*ffmpeg.Adapter)(nil)
var _ ports.Converter = (*dipscli.Adapter)(nil)
var _ ports.Dialogs = (*termdialog.Adapter)(nil)
var _ ports.Dialogs = (*zenity.Adapter)(nil)
var _ ports.Backend = Backend{}
var _ ports.DataDir = (*config.Config)(nil)
