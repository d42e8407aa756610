package index

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"common-corpus/internal/models"
)

// Expected index columns, as produced by the cc_download tooling.
// url, warc_filename, warc_record_offset, warc_record_length
const csvColumns = 4

// CSVSource reads candidates from an index CSV. Not safe for concurrent
// use; the engine serializes Next calls behind its pull lock.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	pos    uint64
}

// OpenCSV opens an index CSV and skips its header row.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	if _, err := r.Read(); err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read index header: %w", err)
	}
	return &CSVSource{file: f, reader: r}, nil
}

// Next returns the next well-formed row. Malformed rows (short, or with a
// non-numeric offset/length) are skipped without consuming a position, same
// as the header row repeated mid-file by a naive index merge.
func (s *CSVSource) Next(ctx context.Context) (models.Candidate, uint64, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.Candidate{}, 0, false, err
		}
		row, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return models.Candidate{}, 0, false, nil
		}
		if err != nil {
			// A torn row; skip it rather than abort the run.
			if errors.As(err, new(*csv.ParseError)) {
				continue
			}
			return models.Candidate{}, 0, false, fmt.Errorf("read index row: %w", err)
		}
		cand, ok := parseRow(row)
		if !ok {
			continue
		}
		pos := s.pos
		s.pos++
		return cand, pos, true, nil
	}
}

// Skip discards the first n candidates so the next Next call returns
// position n.
func (s *CSVSource) Skip(n uint64) error {
	for s.pos < n {
		_, _, ok, err := s.Next(context.Background())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("index exhausted at position %d while seeking %d", s.pos, n)
		}
	}
	return nil
}

func (s *CSVSource) Close() error {
	return s.file.Close()
}

func parseRow(row []string) (models.Candidate, bool) {
	if len(row) < csvColumns || row[3] == "length" {
		return models.Candidate{}, false
	}
	offset, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return models.Candidate{}, false
	}
	length, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil || length <= 0 {
		return models.Candidate{}, false
	}
	return models.Candidate{
		SourceURL:   row[0],
		ArchiveFile: row[1],
		ByteOffset:  offset,
		ByteLength:  length,
	}, true
}
