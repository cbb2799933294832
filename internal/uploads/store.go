package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrTooLarge is returned when an upload exceeds the configured size.
var ErrTooLarge = errors.New("upload exceeds maximum size")

var extRe = regexp.MustCompile(`^\.[\p{L}\p{N}]{1,15}$`)

// StoredFile describes a file accepted into the upload directory.
type StoredFile struct {
	Name         string
	OriginalName string
	Size         int64
}

// Store keeps submitted files in one flat directory under generated names.
type Store struct {
	dir      string
	maxBytes int64

	mu      sync.Mutex
	ensured bool
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// MaxBytes returns the per-file size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save streams r into a new file named <uuid><ext>, where ext comes from
// originalName. Files larger than the limit are removed and ErrTooLarge is
// returned.
func (s *Store) Save(originalName string, r io.Reader) (StoredFile, error) {
	if err := s.ensureDir(); err != nil {
		return StoredFile{}, err
	}

	name := uuid.NewString() + Extension(originalName)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("creating upload file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		return StoredFile{}, multierr.Combine(fmt.Errorf("writing upload file: %w", copyErr), os.Remove(path))
	case n > s.maxBytes:
		return StoredFile{}, multierr.Combine(ErrTooLarge, os.Remove(path))
	case closeErr != nil:
		return StoredFile{}, multierr.Combine(fmt.Errorf("closing upload file: %w", closeErr), os.Remove(path))
	}

	return StoredFile{Name: name, OriginalName: originalName, Size: n}, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Path joins the upload directory with name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Store) ensureDir() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}
	s.ensured = true
	return nil
}

// Extension returns the extension of a client supplied file name, or "" when it
// is missing or not a plain suffix of letters and digits. Non-ASCII letters
// such as ".şiir" are kept.
func Extension(originalName string) string {
	ext := filepath.Ext(filepath.Base(filepath.Clean("/" + originalName)))
	if !extRe.MatchString(ext) {
		return ""
	}
	return ext
}
