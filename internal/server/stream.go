package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ServeStream reads lines from r until EOF or ctx is cancelled and writes
// each response to w. It backs the interactive REPL, so lines are not
// length-limited.
func (d *Dispatcher) ServeStream(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := readLine(br, 0)
		if line != "" {
			if _, werr := io.WriteString(w, d.Handle(ctx, line)); werr != nil {
				return fmt.Errorf("write response: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}
