// Package filestore keeps uploaded bill files on local disk under a root
// directory that the HTTP layer serves read-only.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

// DefaultMaxSize caps a single upload.
const DefaultMaxSize = 10 << 20

var allowed = []string{"application/pdf", "image/jpeg", "image/png", "image/webp", "image/heic"}

type Store struct {
	root    string
	baseURL string
	maxSize int64
	now     func() time.Time
}

func New(root, baseURL string) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}
}

// WithMaxSize returns a copy of s accepting files up to n bytes.
func (s *Store) WithMaxSize(n int64) *Store {
	c := *s
	c.maxSize = n

	return &c
}

func (s *Store) Root() string {
	return s.root
}

// Save stores the content of r under bills/YYYY/MM/ and returns its relative
// path. Only PDFs and common image formats are accepted.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	if int64(len(data)) > s.maxSize {
		return "", &ledger.ValidationError{Fields: map[string]string{
			"bill": "file exceeds " + humanize.IBytes(uint64(s.maxSize)),
		}}
	}

	if len(data) == 0 {
		return "", &ledger.ValidationError{Fields: map[string]string{"bill": "file is empty"}}
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return "", &ledger.ValidationError{Fields: map[string]string{
			"bill": "unsupported file type " + mt.String(),
		}}
	}

	now := s.now()
	rel := path.Join("bills", now.Format("2006"), now.Format("01"), uuid.NewString()+mt.Extension())
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating bill directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing bill: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing bill: %w", err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("storing bill: %w", err)
	}

	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing bill: %w", err)
	}

	return nil
}

// URL is the public address of a stored file.
func (s *Store) URL(rel string) string {
	return s.baseURL + "/" + strings.TrimLeft(rel, "/")
}

func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("invalid path %q", rel)
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
