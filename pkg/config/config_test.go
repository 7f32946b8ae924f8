package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsPipelineDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "videos/", cfg.Pipeline.VideoPrefix)
	assert.Equal(t, "video/", cfg.Pipeline.ContentTypePrefix)
	assert.Equal(t, "storage.example.com", cfg.Public.StorageHost)
	assert.Equal(t, "https", cfg.Public.Scheme)
	assert.Equal(t, 6, cfg.Transcode.HLS.SegmentSeconds)
	assert.Equal(t, 720, cfg.Transcode.HLS.Height)
	assert.Equal(t, 480, cfg.Transcode.Preview.Height)
	assert.Equal(t, "copy", cfg.Transcode.Preview.AudioCodec)
	assert.Equal(t, float64(1), cfg.Transcode.Thumbnail.OffsetSeconds)
	assert.Equal(t, "playlist.m3u8", cfg.Transcode.HLS.PlaylistName)
}

func TestLoadReadsYAMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
storage:
  driver: s3
  bucket: media-bucket
public:
  storage_host: cdn.example.org
transcode:
  preview:
    crf: 30
  ffmpeg:
    timeout: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "media-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "cdn.example.org", cfg.Public.StorageHost)
	assert.Equal(t, 30, cfg.Transcode.Preview.CRF)
	assert.Equal(t, "fast", cfg.Transcode.Preview.Preset)
	assert.Equal(t, 2*time.Minute, cfg.Transcode.FFmpeg.Timeout)
	assert.Equal(t, "storage.object.finalized", cfg.Kafka.Topics.ObjectFinalized)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
