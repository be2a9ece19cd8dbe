package confirm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"cleanerguard/internal/recognizer"
)

var (
	// ErrInvalidClassification rejects requests for files that need no decision.
	ErrInvalidClassification = errors.New("confirmation requires a changed or new classification")
	// ErrNoAnswer means input ended before the user answered.
	ErrNoAnswer = errors.New("no answer received")
)

const warning = "Malicious definitions can damage your computer."

// Message returns the prompt text for path.
func Message(path string, c recognizer.Classification) (string, error) {
	var msg string
	switch c {
	case recognizer.Changed:
		msg = "The following cleaner definition file has changed.  " + warning
	case recognizer.New:
		msg = "The following cleaner definition file is new.  " + warning
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidClassification, c)
	}
	return msg + "\n\n" + path, nil
}

// Static answers every question the same way.
type Static struct {
	Accept bool
}

func (s Static) Confirm(ctx context.Context, path string, c recognizer.Classification) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !c.NeedsConfirmation() {
		return false, fmt.Errorf("%w: %s", ErrInvalidClassification, c)
	}
	return s.Accept, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Auto returns the dialog when both ends are terminals and the line prompt otherwise.
func Auto(in, out *os.File) recognizer.Confirmer {
	if IsTerminal(in) && IsTerminal(out) {
		return NewDialog(in, out)
	}
	return NewPrompter(in, out)
}

// FromMode builds the confirmer named by a config or flag value.
func FromMode(mode string, in *os.File, out *os.File) (recognizer.Confirmer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return Auto(in, out), nil
	case "dialog":
		return NewDialog(in, out), nil
	case "prompt":
		return NewPrompter(in, out), nil
	default:
		return nil, fmt.Errorf("unsupported confirm mode %q", mode)
	}
}

