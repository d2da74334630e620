package pipeline

import "sync/atomic"

// Stats collects run counters. All methods are safe for concurrent use by
// the worker pool.
type Stats struct {
	discovered     atomic.Int64
	transcoded     atomic.Int64
	skipped        atomic.Int64
	failed         atomic.Int64
	coversPlaced   atomic.Int64
	loudnessTagged atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Discovered     int
	Transcoded     int
	Skipped        int
	Failed         int
	CoversPlaced   int
	LoudnessTagged int
}

func (s *Stats) AddDiscovered(n int)     { s.discovered.Add(int64(n)) }
func (s *Stats) AddSkipped(n int)        { s.skipped.Add(int64(n)) }
func (s *Stats) IncTranscoded()          { s.transcoded.Add(1) }
func (s *Stats) IncFailed()              { s.failed.Add(1) }
func (s *Stats) IncCoversPlaced()        { s.coversPlaced.Add(1) }
func (s *Stats) AddLoudnessTagged(n int) { s.loudnessTagged.Add(int64(n)) }

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Discovered:     int(s.discovered.Load()),
		Transcoded:     int(s.transcoded.Load()),
		Skipped:        int(s.skipped.Load()),
		Failed:         int(s.failed.Load()),
		CoversPlaced:   int(s.coversPlaced.Load()),
		LoudnessTagged: int(s.loudnessTagged.Load()),
	}
}
