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
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and binary configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	FFmpegBin string `toml:"ffmpeg_bin"`
	LogDir    string `toml:"log_dir"`
}

// Encoding contains AAC encoder settings.
type Encoding struct {
	VBRQuality   int    `toml:"vbr_quality"`
	OutputFormat string `toml:"output_format"`
}

// CoverFile contains standalone album cover handling settings.
type CoverFile struct {
	Enabled      bool     `toml:"enabled"`
	SearchNames  []string `toml:"search_names"`
	FallbackName string   `toml:"fallback_name"`
	MaxSize      int      `toml:"max_size"`
	JPEGQuality  int      `toml:"jpeg_quality"`
}

// Metadata contains tag and artwork transfer settings.
type Metadata struct {
	CopyArtwork bool      `toml:"copy_artwork"`
	CoverFile   CoverFile `toml:"cover_file"`
}

// Loudness contains loudness analysis and tagging settings.
type Loudness struct {
	EnableReplayGain       bool    `toml:"enable_replaygain"`
	EnableITunesSoundCheck bool    `toml:"enable_itunes_soundcheck"`
	ReferenceLoudness      float64 `toml:"reference_loudness"`
}

// Processing contains worker pool and run behavior settings.
type Processing struct {
	Workers           int    `toml:"workers"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
}

// Config encapsulates all configuration values for repress.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Encoding   Encoding   `toml:"encoding"`
	Metadata   Metadata   `toml:"metadata"`
	Loudness   Loudness   `toml:"loudness"`
	Processing Processing `toml:"processing"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/repress/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. When path is empty the
// default location is tried, falling back to repress.toml in the working
// directory.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if path != "" && !exists {
		return nil, resolvedPath, fmt.Errorf("config file not found: %s", resolvedPath)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
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
	projectPath, err := filepath.Abs("repress.toml")
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

// OutputExt returns the destination file extension including the dot.
func (c *Config) OutputExt() string {
	return "." + c.Encoding.OutputFormat
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the sample configuration file to the given location.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
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
