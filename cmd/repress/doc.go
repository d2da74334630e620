// Command repress converts a FLAC music library into a mirrored AAC/M4A
// tree. It discovers source files, transcodes them with a bounded worker
// pool, copies tags, places album artwork, and writes loudness metadata.
package main
