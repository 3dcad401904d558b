package server

import (
	"bufio"
	"errors"
)

// ErrLineTooLong is returned by readLine when a line exceeds its limit.
var ErrLineTooLong = errors.New("line too long")

// readLine returns the next line including its "\n". At EOF the final
// unterminated line is returned together with the error. limit <= 0 means
// no limit; otherwise a line longer than limit bytes fails with
// ErrLineTooLong after reading at most limit+buffer bytes of it.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if limit > 0 && len(line)+len(chunk) > limit {
			return "", ErrLineTooLong
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
}
