package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cleanerguard/internal/recognizer"
)

// Prompter asks on a line-oriented stream. An empty answer means delete.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) Confirm(ctx context.Context, path string, c recognizer.Classification) (bool, error) {
	msg, err := Message(path, c)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "\n%s\n", msg)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(p.out, "[a]dd / [D]elete? ")
		line, readErr := p.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return false, fmt.Errorf("read answer: %w", readErr)
		}
		if readErr != nil && line == "" {
			fmt.Fprintln(p.out)
			return false, ErrNoAnswer
		}
		if accept, ok := parseAnswer(line); ok {
			return accept, nil
		}
		if readErr != nil {
			return false, ErrNoAnswer
		}
		fmt.Fprintln(p.out, "Please answer add or delete.")
	}
}

func parseAnswer(line string) (accept bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "add", "y", "yes", "trust":
		return true, true
	case "", "d", "delete", "n", "no":
		return false, true
	default:
		return false, false
	}
}
