// Package filestore keeps uploaded deliverable files on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/files"

var (
	safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
	safeSegment   = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// ErrOutsideStore is returned when a URL does not point into the store.
var ErrOutsideStore = errors.New("file is not managed by the store")

// Store persists uploaded files.
type Store interface {
	Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error)
	Remove(fileURL string) error
}

// Local writes files below a directory and publishes them under PublicPrefix.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a store rooted at dir.
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the root directory.
func (s *Local) Dir() string { return s.dir }

// Save stores r under folder with a random name and returns its public URL.
func (s *Local) Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error) {
	if !safeSegment.MatchString(folder) {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !safeExtension.MatchString(ext) {
		ext = ""
	}
	name := uuid.NewString() + ext

	target := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(target, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, &contextReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	return s.baseURL + path.Join(PublicPrefix, folder, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *Local) Remove(fileURL string) error {
	rel, ok := strings.CutPrefix(fileURL, s.baseURL+PublicPrefix+"/")
	if !ok {
		return ErrOutsideStore
	}
	parts := strings.Split(rel, "/")
	if len(parts) != 2 || !safeSegment.MatchString(parts[0]) || strings.Contains(parts[1], "..") {
		return ErrOutsideStore
	}
	err := os.Remove(filepath.Join(s.dir, parts[0], parts[1]))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
