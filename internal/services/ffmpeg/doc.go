// Package ffmpeg wraps the ffmpeg CLI for AAC encoding and EBU R128
// loudness measurement. All subprocess invocations in repress go through the
// Client here; an Executor can be injected for tests.
package ffmpeg
