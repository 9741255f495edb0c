package lock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTryLockSucceedsWhenUnheld(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	acquired, err := l.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, l.Unlock())
}

func TestTryLockFailsWhenAlreadyHeld(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)
	b := New(dir)

	acquired, err := a.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = a.Unlock() }()

	acquired, err = b.TryLock()
	require.NoError(t, err)
	require.False(t, acquired)
}

func TestPathIsUnderIndexDir(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	require.Equal(t, filepath.Join(dir, "lock"), l.Path())
}
