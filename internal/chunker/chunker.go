// Package chunker partitions raw document text into bounded groups of
// lines, one group per dispatchable batch.
package chunker

import (
	"errors"
	"iter"
	"strings"
)

// DefaultLinesPerBatch is used when the caller does not specify a
// partition size.
const DefaultLinesPerBatch = 1000

// ErrInvalidLinesPerBatch is returned when the requested partition size is
// zero or negative.
var ErrInvalidLinesPerBatch = errors.New("chunker: lines per batch must be positive")

// Chunks returns a lazy, restartable sequence of line groups. Each group
// holds exactly linesPerBatch lines except the final one, which holds the
// remainder. Line terminators are stripped; line order is preserved.
// Empty text yields an empty sequence.
func Chunks(text string, linesPerBatch int) (iter.Seq[[]string], error) {
	if linesPerBatch <= 0 {
		return nil, ErrInvalidLinesPerBatch
	}

	lines := splitLines(text)

	return func(yield func([]string) bool) {
		for i := 0; i < len(lines); i += linesPerBatch {
			end := i + linesPerBatch
			if end > len(lines) {
				end = len(lines)
			}
			if !yield(lines[i:end:end]) {
				return
			}
		}
	}, nil
}

// Split eagerly collects the chunk sequence. It produces ceil(M/K) groups
// for M lines and size K, and zero groups for empty text.
func Split(text string, linesPerBatch int) ([][]string, error) {
	seq, err := Chunks(text, linesPerBatch)
	if err != nil {
		return nil, err
	}
	var chunks [][]string
	for chunk := range seq {
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// splitLines splits on newline boundaries without keeping terminators.
// Handles \n and \r\n input; a trailing newline does not produce an extra
// empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
