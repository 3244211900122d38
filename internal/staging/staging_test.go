package staging

import (
	"bytes"
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads", "temp"), nil)
	require.NoError(t, err)
	return s
}

func TestStage_KeepsExtensionAndHash(t *testing.T) {
	s := newStore(t)
	body := []byte("%PDF-1.4 claim form")

	staged, err := s.Stage(context.Background(), "Claim Form.PDF", bytes.NewReader(body))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(staged.Ref, ".pdf"))
	assert.Equal(t, constants.PDF, staged.Kind)
	assert.Equal(t, "Claim Form.PDF", staged.Filename)
	assert.EqualValues(t, len(body), staged.FileSize)
	sum := sha256.Sum256(body)
	assert.Equal(t, sum[:], staged.ContentHash)

	path, err := s.Path(staged.Ref)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestStage_RejectsBadInput(t *testing.T) {
	s := newStore(t)

	_, err := s.Stage(context.Background(), "notes.docx", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrUnsupported)

	_, err = s.Stage(context.Background(), "scan.png", strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPath_RejectsTraversalAndUnknown(t *testing.T) {
	s := newStore(t)
	for _, ref := range []string{
		"../secret.pdf",
		"..%2fsecret.pdf",
		"/etc/passwd",
		"not-a-uuid.pdf",
		"6f1c8c1e-8f57-4a0e-9d0c-7d3f1f0f2a11.exe",
		"6f1c8c1e-8f57-4a0e-9d0c-7d3f1f0f2a11.pdf",
	} {
		_, err := s.Path(ref)
		assert.ErrorIs(t, err, common.ErrNotFound, ref)
	}
}

func TestDiscard_Idempotent(t *testing.T) {
	s := newStore(t)
	staged, err := s.Stage(context.Background(), "scan.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	require.NoError(t, s.Discard(staged.Ref))
	require.NoError(t, s.Discard(staged.Ref))
	require.NoError(t, s.Discard("../whatever"))

	_, err = s.Path(staged.Ref)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSweep_RemovesOldFiles(t *testing.T) {
	s := newStore(t)
	old, err := s.Stage(context.Background(), "old.png", strings.NewReader("old"))
	require.NoError(t, err)
	fresh, err := s.Stage(context.Background(), "fresh.png", strings.NewReader("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Path, past, past))

	assert.Equal(t, 1, s.Sweep(time.Hour))
	_, err = s.Path(old.Ref)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Path(fresh.Ref)
	assert.NoError(t, err)
}
