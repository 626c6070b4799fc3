package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofrs/flock"
)

const (
	DefaultHeight  = 240
	DefaultQuality = 85

	lockRetry = 100 * time.Millisecond
)

// Adapter renders input previews: ffmpeg grabs the first decodable frame and
// imaging scales it into the cache slot.
type Adapter struct {
	ffmpeg  string
	height  int
	quality int
}

func New(ffmpegPath string, height, quality int) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Adapter{ffmpeg: ffmpegPath, height: height, quality: quality}
}

// GenerateThumbnail overwrites cachePath with a JPEG preview of inputPath.
// Concurrent launchers sharing the slot are serialized by a lock file.
func (a *Adapter) GenerateThumbnail(ctx context.Context, inputPath, cachePath string) error {
	dir := filepath.Dir(cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	lock := flock.New(cachePath + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock thumbnail cache: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock thumbnail cache: %s is busy", cachePath)
	}
	defer func() { _ = lock.Unlock() }()

	frame, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	framePath := frame.Name()
	_ = frame.Close()
	defer os.Remove(framePath)

	if err := a.extractFrame(ctx, inputPath, framePath); err != nil {
		return err
	}

	img, err := imaging.Open(framePath)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	thumb := imaging.Resize(img, 0, a.height, imaging.Lanczos)

	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(cachePath))
	if err := imaging.Save(thumb, tmp, imaging.JPEGQuality(a.quality)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write thumbnail: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace thumbnail: %w", err)
	}
	return nil
}

func (a *Adapter) extractFrame(ctx context.Context, inputPath, outPNG string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-v", "error",
		"-i", inputPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		outPNG,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract frame: %w\n%s", err, string(b))
	}
	return nil
}
