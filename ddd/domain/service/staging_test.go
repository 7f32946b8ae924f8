package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

func TestStagingManager_AcquireRelease(t *testing.T) {
	root := t.TempDir()
	m := NewStagingManager(logger.NewNop(), root)

	area, err := m.Acquire("inv-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "derive-inv-1"), area.Root)
	assert.DirExists(t, area.HLSDir())

	require.NoError(t, os.WriteFile(area.SourcePath("clip.mp4"), []byte("src"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(area.HLSDir(), "segment_000.ts"), []byte("x"), 0o644))

	require.NoError(t, m.Release(area))
	assert.NoDirExists(t, area.Root)

	// second release on a missing tree is a no-op
	require.NoError(t, m.Release(area))
}

func TestStagingManager_ReleaseNil(t *testing.T) {
	m := NewStagingManager(logger.NewNop(), t.TempDir())
	assert.NoError(t, m.Release(nil))
	assert.NoError(t, m.Release(&StagingArea{}))
}

func TestStagingManager_UniqueAreas(t *testing.T) {
	m := NewStagingManager(logger.NewNop(), t.TempDir())
	a, err := m.Acquire("")
	require.NoError(t, err)
	b, err := m.Acquire("")
	require.NoError(t, err)
	assert.NotEqual(t, a.Root, b.Root)
	require.NoError(t, m.Release(a))
	require.NoError(t, m.Release(b))
}

func TestStagingManager_AcquireFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	m := NewStagingManager(logger.NewNop(), blocker)
	area, err := m.Acquire("inv")
	assert.Nil(t, area)
	assert.True(t, errors.Is(err, errno.ErrStagingCreate))
}

func TestStagingArea_DisjointPaths(t *testing.T) {
	a := &StagingArea{Root: "/tmp/derive-x"}
	assert.Equal(t, "/tmp/derive-x/source-clip.mp4", a.SourcePath("clip.mp4"))
	assert.NotEqual(t, a.SourcePath("clip.mp4"), a.OutputPath("clip_preview.mp4"))
	assert.Equal(t, "/tmp/derive-x/hls", a.HLSDir())
}
