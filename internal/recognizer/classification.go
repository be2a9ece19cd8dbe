package recognizer

import (
	"fmt"
	"strings"
)

// Classification is the trust verdict for one definition file.
type Classification int

const (
	// Known files match their accepted fingerprint.
	Known Classification = iota + 1
	// Changed files have a record whose fingerprint no longer matches.
	Changed
	// New files have never been accepted.
	New
)

// Classify is the pure three-state decision: no stored fingerprint means New,
// an equal one means Known, a different one means Changed.
func Classify(stored string, found bool, current string) Classification {
	switch {
	case !found:
		return New
	case stored == current:
		return Known
	default:
		return Changed
	}
}

func (c Classification) String() string {
	switch c {
	case Known:
		return "known"
	case Changed:
		return "changed"
	case New:
		return "new"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// NeedsConfirmation reports whether the user must decide about the file.
func (c Classification) NeedsConfirmation() bool {
	return c == Changed || c == New
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseClassification is the inverse of String.
func ParseClassification(value string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "known":
		return Known, nil
	case "changed":
		return Changed, nil
	case "new":
		return New, nil
	default:
		return 0, fmt.Errorf("unknown classification %q", value)
	}
}

// Action is what a scan did with a file.
type Action int

const (
	ActionNone Action = iota
	ActionAccepted
	ActionDeleted
	ActionFailed
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAccepted:
		return "accepted"
	case ActionDeleted:
		return "deleted"
	case ActionFailed:
		return "failed"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
