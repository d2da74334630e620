package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateLoudness(); err != nil {
		return err
	}
	return c.validateProcessing()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.VBRQuality < 1 || c.Encoding.VBRQuality > 5 {
		return errors.New("encoding.vbr_quality must be between 1 and 5")
	}
	switch c.Encoding.OutputFormat {
	case "m4a", "mp4":
		return nil
	default:
		return fmt.Errorf("encoding.output_format must be \"m4a\" or \"mp4\", got %q", c.Encoding.OutputFormat)
	}
}

func (c *Config) validateMetadata() error {
	cover := c.Metadata.CoverFile
	if cover.MaxSize < 0 {
		return errors.New("metadata.cover_file.max_size must be >= 0")
	}
	if cover.JPEGQuality < 1 || cover.JPEGQuality > 95 {
		return errors.New("metadata.cover_file.jpeg_quality must be between 1 and 95")
	}
	return nil
}

func (c *Config) validateLoudness() error {
	ref := c.Loudness.ReferenceLoudness
	if ref < -30.0 || ref > 0.0 {
		return fmt.Errorf("loudness.reference_loudness must be between -30.0 and 0.0 LUFS, got %g", ref)
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Workers < 1 {
		return errors.New("processing.workers must be >= 1")
	}
	switch c.Processing.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("processing.log_level must be debug, info, warn, or error, got %q", c.Processing.LogLevel)
	}
	switch c.Processing.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("processing.log_format must be console or json, got %q", c.Processing.LogFormat)
	}
	return nil
}
