// Package pathsource implements StreamReader: a lazy reader of a
// delimiter-separated path list from a text stream (typically standard
// input), per spec.md §4.B.
package pathsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// StreamReader reads delimiter-separated UTF-8 entries from a byte stream.
type StreamReader struct {
	r     *bufio.Reader
	delim byte
}

// New creates a StreamReader splitting r on delim.
func New(r io.Reader, delim byte) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r), delim: delim}
}

// NewDefault creates a StreamReader splitting on a newline.
func NewDefault(r io.Reader) *StreamReader {
	return New(r, '\n')
}

// ReadEntry returns the next delimited, non-empty entry. ok is false at
// end of input (io.EOF with no trailing data). A trailing unterminated
// entry is returned before end-of-input is reported. Invalid UTF-8 fails
// just that entry with an error; the caller may call ReadEntry again to
// continue with the next one.
func (s *StreamReader) ReadEntry() (entry string, ok bool, err error) {
	for {
		raw, readErr := s.r.ReadBytes(s.delim)
		if len(raw) > 0 && raw[len(raw)-1] == s.delim {
			raw = raw[:len(raw)-1]
		}
		if len(raw) == 0 {
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					return "", false, nil
				}
				return "", false, readErr
			}
			// Empty entries (two consecutive delimiters) are skipped.
			continue
		}
		if !utf8.Valid(raw) {
			return "", true, fmt.Errorf("path source: invalid UTF-8 entry")
		}
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return "", false, readErr
		}
		return string(raw), true, nil
	}
}
