package config

import (
	"errors"
	"fmt"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.Dips == "" {
		return errors.New("tools.dips must be set")
	}
	switch c.Dialog.Backend {
	case DialogTerminal, DialogZenity:
	default:
		return fmt.Errorf("dialog.backend: unsupported value %q", c.Dialog.Backend)
	}
	if c.Thumbnail.Height <= 0 {
		return fmt.Errorf("thumbnail.height must be > 0")
	}
	if c.Thumbnail.Quality < 1 || c.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail.quality must be between 1 and 100")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, err := c.Properties(); err != nil {
		return fmt.Errorf("conversion: %w", err)
	}
	return nil
}
