package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestStore_PutReadRelease(t *testing.T) {
	s := newTestStore(t)

	e, err := s.Put("sess-1", "report.pdf", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", e.Name)
	assert.Equal(t, filepath.Join(s.Root(), "sess-1", "report.pdf"), e.Path)

	data, err := s.Read(e)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	names, err := s.Entries("sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, names)

	require.NoError(t, s.Release(e))
	names, err = s.Entries("sess-1")
	require.NoError(t, err)
	assert.Empty(t, names)

	// second release is a no-op
	assert.NoError(t, s.Release(e))
	assert.NoError(t, s.Release(nil))
}

func TestStore_LastWriteWins(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Put("sess", "a.pdf", []byte("first"))
	require.NoError(t, err)
	e, err := s.Put("sess", "a.pdf", []byte("second"))
	require.NoError(t, err)

	data, err := s.Read(e)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	names, err := s.Entries("sess")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, names)
}

func TestStore_NamesAreSanitized(t *testing.T) {
	s := newTestStore(t)

	e, err := s.Put("sess", "../../etc/passwd.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd.pdf", e.Name)
	assert.Equal(t, s.SessionDir("sess"), filepath.Dir(e.Path))

	e, err = s.Put("sess", `C:\Users\me\scan.pdf`, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", e.Name)

	for _, bad := range []string{"", ".", "..", "/"} {
		_, err := s.Put("sess", bad, []byte("x"))
		assert.True(t, errors.Is(err, ErrInvalidName), "name %q", bad)
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Put("a", "doc.pdf", []byte("a"))
	require.NoError(t, err)
	_, err = s.Put("b", "doc.pdf", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, s.Purge("a"))

	names, err := s.Entries("a")
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = s.Entries("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.pdf"}, names)
}

func TestStore_EntriesUnknownSession(t *testing.T) {
	s := newTestStore(t)
	names, err := s.Entries("nope")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_Writable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Writable())

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "check file should be removed")
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New("", nil)
	assert.Error(t, err)
}
