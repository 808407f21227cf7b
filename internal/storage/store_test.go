package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("creates missing root directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "files")
		s, err := New(dir)
		require.NoError(t, err)

		info, err := os.Stat(s.Root())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("root is absolute", func(t *testing.T) {
		s := newTestStore(t)
		assert.True(t, filepath.IsAbs(s.Root()))
	})
}

func TestStore_BeginUpload_InvalidNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{
		"",
		".",
		"..",
		"../escape.txt",
		"..\\escape.txt",
		"sub/dir.txt",
		"sub\\dir.txt",
		"/etc/passwd",
		"bad\nname",
		"bad\x00name",
	} {
		t.Run(fmt.Sprintf("rejects %q", name), func(t *testing.T) {
			_, err := s.BeginUpload(name)
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestStore_Upload_Commit(t *testing.T) {
	s := newTestStore(t)

	up, err := s.BeginUpload("hello.txt")
	require.NoError(t, err)

	_, err = up.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = up.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), up.BytesWritten())

	require.NoError(t, up.Commit())

	data, err := os.ReadFile(filepath.Join(s.Root(), "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	t.Run("no temp file remains", func(t *testing.T) {
		names, err := os.ReadDir(s.Root())
		require.NoError(t, err)
		require.Len(t, names, 1)
		assert.Equal(t, "hello.txt", names[0].Name())
	})

	t.Run("commit replaces an existing file", func(t *testing.T) {
		up, err := s.BeginUpload("hello.txt")
		require.NoError(t, err)
		_, err = up.Write([]byte("v2"))
		require.NoError(t, err)
		require.NoError(t, up.Commit())

		data, err := os.ReadFile(filepath.Join(s.Root(), "hello.txt"))
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})
}

func TestStore_Upload_Abort(t *testing.T) {
	s := newTestStore(t)

	up, err := s.BeginUpload("partial.txt")
	require.NoError(t, err)
	_, err = up.Write([]byte("incomplete data"))
	require.NoError(t, err)

	require.NoError(t, up.Abort())

	t.Run("destination does not exist", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(s.Root(), "partial.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("temp file is removed", func(t *testing.T) {
		names, err := os.ReadDir(s.Root())
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("abort after commit is a no-op", func(t *testing.T) {
		up, err := s.BeginUpload("kept.txt")
		require.NoError(t, err)
		_, err = up.Write([]byte("kept"))
		require.NoError(t, err)
		require.NoError(t, up.Commit())
		require.NoError(t, up.Abort())

		_, err = os.Stat(filepath.Join(s.Root(), "kept.txt"))
		assert.NoError(t, err)
	})
}

func TestStore_Upload_Exclusivity(t *testing.T) {
	s := newTestStore(t)

	up, err := s.BeginUpload("claimed.txt")
	require.NoError(t, err)

	t.Run("second upload to same name is rejected", func(t *testing.T) {
		_, err := s.BeginUpload("claimed.txt")
		assert.ErrorIs(t, err, ErrUploadInProgress)
	})

	t.Run("different name is unaffected", func(t *testing.T) {
		other, err := s.BeginUpload("other.txt")
		require.NoError(t, err)
		require.NoError(t, other.Abort())
	})

	t.Run("commit releases the claim", func(t *testing.T) {
		require.NoError(t, up.Commit())

		again, err := s.BeginUpload("claimed.txt")
		require.NoError(t, err)
		require.NoError(t, again.Abort())
	})
}

func TestStore_Open(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "data.bin"), []byte{1, 2, 3}, 0644))

	t.Run("reads stored file", func(t *testing.T) {
		f, err := s.Open("data.bin")
		require.NoError(t, err)
		defer f.Close()

		buf := make([]byte, 8)
		n, _ := f.Read(buf)
		assert.Equal(t, []byte{1, 2, 3}, buf[:n])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Open("nope.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := s.Open("../data.bin")
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".upload-x.part"), []byte("tmp"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "subdir"), 0755))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}
