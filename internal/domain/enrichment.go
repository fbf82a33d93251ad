package domain

import (
	"sort"
	"time"
)

// IdentifierBatch is a group of accessions submitted in one mapping request
type IdentifierBatch struct {
	Index      int
	Accessions []string
}

// JobState represents a step of the enrichment protocol
type JobState string

const (
	JobStateSubmitting JobState = "SUBMITTING"
	JobStatePolling    JobState = "POLLING"
	JobStateFetching   JobState = "FETCHING"
	JobStateRetryWait  JobState = "RETRY_WAIT"
	JobStateDone       JobState = "DONE"
	JobStateFailed     JobState = "FAILED"
)

// IsTerminal reports whether no further transition can happen.
func (s JobState) IsTerminal() bool {
	return s == JobStateDone || s == JobStateFailed
}

// EnrichmentJob tracks one batch through the remote mapping protocol
type EnrichmentJob struct {
	Ref       string // local correlation id
	JobID     string // remote job id, set once submitted
	Batch     IdentifierBatch
	State     JobState
	Attempts  int
	Polls     int
	StartedAt time.Time
	LastError error
}

// AccessionNameTable maps an accession to its primary gene name.
type AccessionNameTable map[string]string

// Merge copies every entry of other into t. Later values win.
func (t AccessionNameTable) Merge(other AccessionNameTable) {
	for acc, name := range other {
		t[acc] = name
	}
}

// Pairs returns the table as sorted accession/name lines.
func (t AccessionNameTable) Pairs() []Pair {
	accs := make([]string, 0, len(t))
	for acc := range t {
		accs = append(accs, acc)
	}
	sort.Strings(accs)
	pairs := make([]Pair, 0, len(accs))
	for _, acc := range accs {
		pairs = append(pairs, Pair{Key: acc, Value: t[acc]})
	}
	return pairs
}
