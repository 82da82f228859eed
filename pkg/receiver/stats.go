package receiver

import "sync/atomic"

// Stats counts frames a Server has served since it started, mirroring the
// per-process frame counters the original harness reports at shutdown.
// Safe for concurrent use by the TCP and UDP handlers.
type Stats struct {
	parsed    atomic.Uint64
	nakked    atomic.Uint64
	discarded atomic.Uint64
}

// StatsSnapshot is a point-in-time read of a Server's counters.
type StatsSnapshot struct {
	Parsed    uint64
	NAKed     uint64
	Discarded uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		Parsed:    s.parsed.Load(),
		NAKed:     s.nakked.Load(),
		Discarded: s.discarded.Load(),
	}
}

func (s *Stats) recordParsed() {
	if s != nil {
		s.parsed.Add(1)
	}
}

func (s *Stats) recordNAK() {
	if s != nil {
		s.nakked.Add(1)
	}
}

func (s *Stats) recordDiscarded() {
	if s != nil {
		s.discarded.Add(1)
	}
}
