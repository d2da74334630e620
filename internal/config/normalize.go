package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeMetadata()
	c.normalizeProcessing()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = ExpandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.FFmpegBin = strings.TrimSpace(c.Paths.FFmpegBin)
	if c.Paths.FFmpegBin == "" {
		c.Paths.FFmpegBin = defaultFFmpegBin
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.OutputFormat = strings.ToLower(strings.TrimSpace(c.Encoding.OutputFormat))
	if c.Encoding.OutputFormat == "" {
		c.Encoding.OutputFormat = defaultOutputFormat
	}
}

func (c *Config) normalizeMetadata() {
	if len(c.Metadata.CoverFile.SearchNames) == 0 {
		c.Metadata.CoverFile.SearchNames = defaultCoverSearchNames()
	}
	if strings.TrimSpace(c.Metadata.CoverFile.FallbackName) == "" {
		c.Metadata.CoverFile.FallbackName = defaultCoverFallbackName
	}
}

func (c *Config) normalizeProcessing() {
	c.Processing.LogLevel = strings.ToLower(strings.TrimSpace(c.Processing.LogLevel))
	if c.Processing.LogLevel == "" {
		c.Processing.LogLevel = defaultLogLevel
	}
	c.Processing.LogFormat = strings.ToLower(strings.TrimSpace(c.Processing.LogFormat))
	if c.Processing.LogFormat == "" {
		c.Processing.LogFormat = defaultLogFormat
	}
}
