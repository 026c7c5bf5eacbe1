package permission

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRead(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.Equal(t, Granted, CheckRead(file).Status)
	assert.Equal(t, Denied, CheckRead(filepath.Join(dir, "missing.mp4")).Status)
	assert.Equal(t, Denied, CheckRead(dir).Status)
}

func TestCheckWriteCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	r := CheckWrite(dir)
	require.True(t, r.Granted(), r.Reason)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be cleaned up")
}

func TestCheckWriteOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.Equal(t, Blocked, CheckWrite(file).Status)
}

func TestCheckWriteReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("mode bits are not enforced here")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	assert.Equal(t, Blocked, CheckWrite(dir).Status)
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(Result{Status: Granted, Path: "a"}))

	err := Require(
		Result{Status: Granted, Path: "a"},
		Result{Status: Blocked, Path: "b", Reason: "read-only"},
		Result{Status: Denied, Path: "c"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermission))

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "b", pe.Path)
	assert.Contains(t, err.Error(), "chmod")
}

func TestInspectHasNoSideEffects(t *testing.T) {
	root := t.TempDir()
	missing := filepath.Join(root, "a", "b")

	r := Inspect(missing)
	assert.Equal(t, Denied, r.Status)
	assert.True(t, r.Missing)
	assert.NoDirExists(t, missing)

	r = Inspect(root)
	assert.True(t, r.Granted(), r.Reason)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)

	file := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	r = Inspect(file)
	assert.Equal(t, Blocked, r.Status)
	assert.False(t, r.Missing)
}

func TestCheckReadDir(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, CheckReadDir(dir).Granted(), "empty dir is readable")

	file := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, CheckReadDir(dir).Granted())
	assert.Equal(t, Blocked, CheckReadDir(file).Status)
	assert.Equal(t, Denied, CheckReadDir(filepath.Join(dir, "none")).Status)
}
