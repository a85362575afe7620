package storage

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("assignment_a_student_s_1.pdf", bytes.NewBufferString("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	f, err := store.Open("assignment_a_student_s_1.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = store.SaveStream("assignment_a_student_s_1.pdf", bytes.NewBufferString("again"))
	assert.Error(t, err)

	require.NoError(t, store.Delete("assignment_a_student_s_1.pdf"))
	require.NoError(t, store.Delete("assignment_a_student_s_1.pdf"))
	_, err = os.Stat(store.Path("assignment_a_student_s_1.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageContainsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.FileExists(t, store.Path("etc/passwd"))

	_, err = store.Save("", []byte("x"))
	assert.Error(t, err)
}

func TestLocalStorageCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("reports/old.csv", []byte("a"))
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("reports/old.csv"), old, old))
	_, err = store.Save("reports/new.csv", []byte("b"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	assert.FileExists(t, store.Path("reports/new.csv"))
}
