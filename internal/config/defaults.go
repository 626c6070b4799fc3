package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns the built-in configuration before normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir(),
			HistoryDB: "",
		},
		Tools: Tools{
			FFmpeg: "ffmpeg",
			Dips:   "dips",
			Zenity: "zenity",
		},
		Dialog: Dialog{Backend: DialogTerminal},
		Thumbnail: Thumbnail{
			Height:  240,
			Quality: 85,
		},
		Conversion: Conversion{
			Encoding:      "RGBA",
			Filter:        "sigmoid",
			Chroma:        "all",
			SigmoidScalar: 5.0,
			WindowSize:    1,
			Colorize:      true,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "dips")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/dips"
	}
	return filepath.Join(home, ".local", "share", "dips")
}
