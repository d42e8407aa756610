package models

// RunStateVersion is the current state file schema version.
const RunStateVersion = 1

// RunState is the durable snapshot of run progress. Cursor is the index
// position of the next candidate to pull; NextCorpusID is the next id the
// corpus writer will assign; CoverageEdges is the full ledger content.
type RunState struct {
	Version       int      `json:"version"`
	Cursor        uint64   `json:"cursor"`
	NextCorpusID  uint64   `json:"next_corpus_id"`
	TestedCount   uint64   `json:"tested_count"`
	CoverageEdges []uint64 `json:"coverage_edges"`
}
