package models

import "time"

// Outcome values for a tested candidate.
const (
	OutcomeNew   = "new"   // candidate produced new coverage and was retained
	OutcomeKnown = "known" // candidate ran fine but added no coverage
	OutcomeSkip  = "skip"  // fetch or execution failed; candidate discarded
)

// ResultEvent reports the outcome of one candidate to the results topic.
// CorpusID and Edges are only set for OutcomeNew.
type ResultEvent struct {
	Position    uint64    `json:"position"`
	Outcome     string    `json:"outcome"`
	SourceURL   string    `json:"source_url,omitempty"`
	ArchiveFile string    `json:"archive_file,omitempty"`
	CorpusID    *uint64   `json:"corpus_id,omitempty"`
	NewEdges    int       `json:"new_edges,omitempty"`
	Edges       []uint64  `json:"edges,omitempty"`
	TestedAt    time.Time `json:"tested_at"`
}
