// Package attachments stores files uploaded alongside deliveries in a local
// directory, keyed by their sanitized original filename.
package attachments

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidName is returned when a filename sanitizes to nothing.
var ErrInvalidName = errors.New("invalid attachment filename")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces an uploaded filename to a safe ASCII basename:
// accents are decomposed and dropped, path separators and whitespace runs
// become underscores, anything outside [A-Za-z0-9_.-] is removed, and leading
// or trailing dots and underscores are trimmed. The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Store is a directory of uploaded files.
type Store struct {
	dir string
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating attachment dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Save writes r under the sanitized form of original and returns that name.
// An existing file with the same name is replaced. Nothing is left behind on
// failure.
func (s *Store) Save(original string, r io.Reader) (string, error) {
	name := SanitizeFilename(original)
	if name == "" {
		return "", fmt.Errorf("%q: %w", original, ErrInvalidName)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing attachment %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing attachment %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("storing attachment %s: %w", name, err)
	}
	return name, nil
}

// Open opens a stored attachment for reading.
func (s *Store) Open(name string) (*os.File, error) {
	if name == "" || SanitizeFilename(name) != name {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening attachment: %w", err)
	}
	return f, nil
}
