package csv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Candidates is the fixed priority order used by DetectDelimiter.
var Candidates = []rune{',', ';', '\t', '|'}

// DefaultDelimiter is returned when the first line contains no candidate.
const DefaultDelimiter = ','

// DetectDelimiter reads the first line of r and returns the first candidate
// delimiter found in it, or DefaultDelimiter.
//
// The read position is reset to the start of r before returning, so callers
// can read the header again.
func DetectDelimiter(r io.ReadSeeker) (rune, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("detect delimiter: read first line: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("detect delimiter: rewind: %w", err)
	}
	return delimiterIn(line), nil
}

// DetectDelimiterFile opens path and runs DetectDelimiter on it.
func DetectDelimiterFile(path string) (rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return DetectDelimiter(f)
}

func delimiterIn(line string) rune {
	for _, c := range Candidates {
		if strings.ContainsRune(line, c) {
			return c
		}
	}
	return DefaultDelimiter
}
