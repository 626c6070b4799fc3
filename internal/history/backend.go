package history

import (
	"context"
	"log/slog"

	"github.com/forPelevin/dips/internal/ports"
)

// Backend journals every conversion it forwards. Journal failures are logged
// and never block the dispatch itself.
type Backend struct {
	next   ports.Backend
	store  *Store
	logger *slog.Logger
}

func NewBackend(next ports.Backend, store *Store, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{next: next, store: store, logger: logger}
}

func (b *Backend) GenerateThumbnail(ctx context.Context, inputPath, cachePath string) error {
	return b.next.GenerateThumbnail(ctx, inputPath, cachePath)
}

func (b *Backend) RunConversion(ctx context.Context, inputPath, outputPath string) error {
	d, err := b.store.Begin(ctx, inputPath, outputPath)
	if err != nil {
		b.logger.Warn("history: record dispatch", "error", err)
		return b.next.RunConversion(ctx, inputPath, outputPath)
	}

	runErr := b.next.RunConversion(ctx, inputPath, outputPath)
	if err := b.store.Finish(context.WithoutCancel(ctx), d.ID, runErr); err != nil {
		b.logger.Warn("history: finish dispatch", "id", d.ID, "error", err)
	}
	return runErr
}

var _ ports.Backend = (*Backend)(nil)
