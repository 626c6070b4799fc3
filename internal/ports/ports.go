package ports

import (
	"context"

	"github.com/forPelevin/dips/internal/types"
)

// Dialogs picks filesystem paths. A dismissed dialog yields types.Cancelled()
// and a nil error.
type Dialogs interface {
	PickOpenPath(ctx context.Context, opts types.OpenOptions) (types.Selection, error)
	PickSavePath(ctx context.Context, opts types.SaveOptions) (types.Selection, error)
}

type Backend interface {
	GenerateThumbnail(ctx context.Context, inputPath, cachePath string) error
	RunConversion(ctx context.Context, inputPath, outputPath string) error
}

type Thumbnailer interface {
	GenerateThumbnail(ctx context.Context, inputPath, cachePath string) error
}

type Converter interface {
	RunConversion(ctx context.Context, inputPath, outputPath string) error
}

// DataDir resolves the per-user local data directory.
type DataDir interface {
	LocalDataDir() (string, error)
}

type DataDirFunc func() (string, error)

func (f DataDirFunc) LocalDataDir() (string, error) { return f() }

// Surface receives session events and renders them.
type Surface interface {
	Render(ev types.Event)
}

type SurfaceFunc func(ev types.Event)

func (f SurfaceFunc) Render(ev types.Event) { f(ev) }
