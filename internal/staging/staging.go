// Package staging keeps uploaded claim documents on disk between preview and commit.
package staging

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates dir if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("failed to create staging dir", "dir", dir, "error", err)
		return nil, err
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// Stage copies r to a fresh uuid-named file that keeps filename's extension.
func (s *Store) Stage(ctx context.Context, filename string, r io.Reader) (*entity.StagedFile, error) {
	logger := common.LoggerFrom(ctx, s.logger)

	ext := constants.NormalizeExt(filepath.Ext(filename))
	kind := constants.KindForExt(ext)
	if kind == "" {
		return nil, common.UnsupportedErrorf("unsupported file extension %q", ext)
	}

	ref := uuid.NewString() + "." + ext
	path := filepath.Join(s.dir, ref)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("failed to create staged file", "path", path, "error", err)
		return nil, common.WrapError(common.ErrInternal, "stage upload")
	}

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(f, h), r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		logger.Error("failed to write staged file", "path", path, "error", err)
		return nil, common.WrapError(common.ErrInternal, "stage upload")
	}
	if n == 0 {
		_ = os.Remove(path)
		return nil, common.InvalidArgumentError("uploaded file is empty")
	}

	staged := &entity.StagedFile{
		Ref:         ref,
		Filename:    filepath.Base(filename),
		FileExt:     ext,
		Kind:        kind,
		FileSize:    n,
		ContentHash: h.Sum(nil),
		Path:        path,
		UploadedAt:  time.Now().UTC(),
	}
	logger.Info("staging.stored", "ref", ref, "filename", staged.Filename, "bytes", n)
	return staged, nil
}

// validRef accepts only names Stage produces: a uuid plus an allowed extension.
func validRef(ref string) bool {
	if ref == "" || ref != filepath.Base(ref) || strings.ContainsAny(ref, `/\`) {
		return false
	}
	stem, ext, ok := strings.Cut(ref, ".")
	if !ok || constants.KindForExt(ext) == "" {
		return false
	}
	_, err := uuid.Parse(stem)
	return err == nil
}

// Path resolves ref to the staged file on disk.
func (s *Store) Path(ref string) (string, error) {
	if !validRef(ref) {
		return "", common.NotFoundErrorf("staged file %q", ref)
	}
	path := filepath.Join(s.dir, ref)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", common.NotFoundErrorf("staged file %q", ref)
	}
	return path, nil
}

// Discard removes the staged file. Unknown refs are not an error.
func (s *Store) Discard(ref string) error {
	if !validRef(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("failed to discard staged file", "ref", ref, "error", err)
		return common.WrapError(common.ErrInternal, "discard staged file")
	}
	return nil
}

// Sweep removes staged files older than maxAge and returns how many went.
func (s *Store) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read staging dir", "dir", s.dir, "error", err)
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !validRef(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("staging.swept", "removed", removed)
	}
	return removed
}
