package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/dips/internal/domain/dips"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	HistoryDB string `toml:"history_db"`
}

// Tools names the external binaries the launcher drives.
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	Dips   string `toml:"dips"`
	Zenity string `toml:"zenity"`
}

type Dialog struct {
	Backend string `toml:"backend"` // terminal or zenity
}

type Thumbnail struct {
	Height  int `toml:"height"`
	Quality int `toml:"quality"`
}

// Conversion mirrors dips.Properties in file form.
type Conversion struct {
	Encoding       string  `toml:"encoding"`
	Filter         string  `toml:"filter"`
	Chroma         string  `toml:"chroma"`
	SigmoidScalar  float64 `toml:"sigmoid_scalar"`
	WindowSize     int     `toml:"window_size"`
	Colorize       bool    `toml:"colorize"`
	RefreshMarkers []int   `toml:"refresh_markers"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all launcher settings.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Dialog     Dialog     `toml:"dialog"`
	Thumbnail  Thumbnail  `toml:"thumbnail"`
	Conversion Conversion `toml:"conversion"`
	Logging    Logging    `toml:"logging"`
}

const (
	DialogTerminal = "terminal"
	DialogZenity   = "zenity"
)

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dips/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("dips.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"DIPS_DATA_DIR":  &c.Paths.DataDir,
		"DIPS_FFMPEG":    &c.Tools.FFmpeg,
		"DIPS_BIN":       &c.Tools.Dips,
		"DIPS_DIALOG":    &c.Dialog.Backend,
		"DIPS_LOG_LEVEL": &c.Logging.Level,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// LocalDataDir returns the directory holding cached artifacts, creating it
// on first use.
func (c *Config) LocalDataDir() (string, error) {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir %q: %w", c.Paths.DataDir, err)
	}
	return c.Paths.DataDir, nil
}

// Properties converts the [conversion] section into backend properties.
func (c *Config) Properties() (dips.Properties, error) {
	p := dips.DefaultProperties()
	filter, err := dips.ParseFilter(c.Conversion.Filter)
	if err != nil {
		return p, err
	}
	chroma, err := dips.ParseChroma(c.Conversion.Chroma)
	if err != nil {
		return p, err
	}
	p.Filter = filter
	p.Chroma = chroma
	p.Encoding = dips.ParseEncoding(c.Conversion.Encoding)
	p.Colorize = c.Conversion.Colorize
	p.SetWindowSize(c.Conversion.WindowSize)
	p.SetSigmoidScalar(c.Conversion.SigmoidScalar)
	p.RefreshMarkers = append([]int(nil), c.Conversion.RefreshMarkers...)
	return p, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
