package models

// Candidate identifies one archive record to fetch and test. Produced once
// per index position; immutable, so it can be re-fetched on retry.
type Candidate struct {
	SourceURL   string `json:"source_url"`
	ArchiveFile string `json:"archive_file"`
	ByteOffset  int64  `json:"byte_offset"`
	ByteLength  int64  `json:"byte_length"`
}
