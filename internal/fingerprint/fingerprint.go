package fingerprint

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha512.Size * 2

const saltEntropyBytes = 64

// ErrUnreadable marks a definition file whose contents could not be read.
var ErrUnreadable = errors.New("definition file unreadable")

// Sum returns the hex digest of salt followed by content.
func Sum(salt string, content []byte) string {
	h := sha512.New()
	_, _ = io.WriteString(h, salt)
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// File streams the file at path into the keyed digest. Read failures wrap
// ErrUnreadable so callers can keep them apart from store failures.
func File(ctx context.Context, salt, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %w", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	h := sha512.New()
	_, _ = io.WriteString(h, salt)
	if err := copyContext(ctx, h, file); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: read %s: %w", ErrUnreadable, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewSalt returns a fresh salt: the digest of random bytes.
func NewSalt() (string, error) {
	buf := make([]byte, saltEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random salt: %w", err)
	}
	return Sum("", buf), nil
}

// Valid reports whether value looks like a fingerprint produced by Sum.
func Valid(value string) bool {
	if len(value) != Size {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func copyContext(ctx context.Context, h hash.Hash, r io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
