// Package binstrings extracts printable strings from binary files,
// in the manner of the classic strings(1) utility. It is the default
// StringExtractor used by the built-in metadata extractors.
package binstrings

import (
	"bufio"
	"fmt"
	"os"
)

// DefaultMinLength is the minimum printable run length reported.
const DefaultMinLength = 4

// Extractor scans a file for runs of printable ASCII characters.
type Extractor struct {
	minLength int
}

// New creates an extractor. minLength <= 0 falls back to DefaultMinLength.
func New(minLength int) *Extractor {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Extractor{minLength: minLength}
}

// Strings returns every printable ASCII run of at least minLength bytes
// found in the file at path.
func (e *Extractor) Strings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for string extraction: %w", err)
	}
	defer f.Close()

	var out []string
	var run []byte

	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b >= 0x20 && b <= 0x7e {
			run = append(run, b)
			continue
		}
		if len(run) >= e.minLength {
			out = append(out, string(run))
		}
		run = run[:0]
	}
	if len(run) >= e.minLength {
		out = append(out, string(run))
	}

	return out, nil
}
