package config

const (
	defaultFFmpegBin         = "ffmpeg"
	defaultLogDir            = "~/.local/share/repress/logs"
	defaultVBRQuality        = 5
	defaultOutputFormat      = "m4a"
	defaultCoverFallbackName = "cover.jpg"
	defaultCoverMaxSize      = 2000
	defaultCoverJPEGQuality  = 95
	defaultReferenceLoudness = -18.0
	defaultWorkers           = 4
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
)

func defaultCoverSearchNames() []string {
	return []string{"cover.jpg", "folder.jpg", "front.jpg", "Cover.jpg"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FFmpegBin: defaultFFmpegBin,
			LogDir:    defaultLogDir,
		},
		Encoding: Encoding{
			VBRQuality:   defaultVBRQuality,
			OutputFormat: defaultOutputFormat,
		},
		Metadata: Metadata{
			CopyArtwork: true,
			CoverFile: CoverFile{
				Enabled:      true,
				SearchNames:  defaultCoverSearchNames(),
				FallbackName: defaultCoverFallbackName,
				MaxSize:      defaultCoverMaxSize,
				JPEGQuality:  defaultCoverJPEGQuality,
			},
		},
		Loudness: Loudness{
			EnableReplayGain:       true,
			EnableITunesSoundCheck: true,
			ReferenceLoudness:      defaultReferenceLoudness,
		},
		Processing: Processing{
			Workers:   defaultWorkers,
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
