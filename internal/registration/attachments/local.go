package attachments

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "ezyassist/pkg/domain-errors"
)

// DefaultMaxBytes caps a single proof-of-deposit upload.
const DefaultMaxBytes = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// LocalStore keeps uploads under a directory. References are relative paths
// of the form YYYY/MM/<uuid>.<ext> and never contain user-supplied names.
type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocal(dir string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save stores one upload. The content type is sniffed rather than trusted.
func (s *LocalStore) Save(_ context.Context, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "deposit proof is empty")
	}
	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[strings.Split(contentType, ";")[0]]
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "deposit proof must be an image or PDF")
	}

	ref := filepath.ToSlash(filepath.Join(time.Now().UTC().Format("2006/01"), uuid.NewString()+ext))
	path := filepath.Join(s.dir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(br, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = dErrors.New(dErrors.CodeValidation, fmt.Sprintf("deposit proof must be at most %d MB", s.maxBytes>>20))
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return ref, nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, dErrors.New(dErrors.CodeNotFound, "attachment not found")
	}
	return f, err
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if ref == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid attachment reference")
	}
	return filepath.Join(s.dir, clean), nil
}
