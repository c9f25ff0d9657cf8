package hashsearch

import "time"

type SearchBegin struct {
	SearchID      string
	ZerosNeeded   uint
	MatchesNeeded uint
	Start         uint64
}

type SearchMatch struct {
	SearchID  string
	Candidate uint64
	Digest    string
}

type SearchComplete struct {
	SearchID  string
	Matches   uint
	LastAsked uint64
	Elapsed   time.Duration
}

type SearchExhausted struct {
	SearchID  string
	Matches   uint
	LastAsked uint64
	Elapsed   time.Duration
}

// ActionRecorder is satisfied by *tracing.Tracer.
type ActionRecorder interface {
	RecordAction(action interface{})
}

type nopRecorder struct{}

func (nopRecorder) RecordAction(interface{}) {}
