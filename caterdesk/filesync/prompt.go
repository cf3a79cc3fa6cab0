package filesync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user a yes/no question. Returning ErrCancelled means the
// user backed out instead of answering.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// TerminalPrompter asks on a terminal. End of input counts as cancellation.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm implements Prompter
func (p TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, _ = fmt.Fprintf(p.Out, "%s [y/N] ", question)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, err
		}
		if strings.TrimSpace(line) == "" {
			return false, ErrCancelled
		}
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// StaticPrompter answers every question the same way
type StaticPrompter struct {
	Answer bool
	Err    error
	Asked  []string
}

// Confirm implements Prompter
func (p *StaticPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.Asked = append(p.Asked, question)
	return p.Answer, p.Err
}
