// Package logging builds the slog loggers used across repress. It provides a
// console handler for interactive runs, a JSON handler for log files, and
// attribute helpers shared by the pipeline packages.
package logging
