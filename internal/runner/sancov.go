package runner

import (
	"encoding/binary"
	"fmt"
)

// ParseSancov decodes a SanitizerCoverage artifact: little-endian 8-byte
// words, the first of which is the format magic and carries no edge. Edges
// are deduplicated; order is preserved but callers treat them as a set.
func ParseSancov(data []byte) ([]uint64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("malformed sancov data: %d bytes", len(data))
	}
	if len(data) <= 8 {
		return nil, nil
	}
	seen := make(map[uint64]struct{}, len(data)/8-1)
	edges := make([]uint64, 0, len(data)/8-1)
	for off := 8; off < len(data); off += 8 {
		edge := binary.LittleEndian.Uint64(data[off : off+8])
		if _, ok := seen[edge]; ok {
			continue
		}
		seen[edge] = struct{}{}
		edges = append(edges, edge)
	}
	return edges, nil
}
