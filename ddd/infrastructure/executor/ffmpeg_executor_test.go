package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/ddd/domain/port"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/config"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755))
	return p
}

func newTestExecutor(t *testing.T, ffmpegBody string) (*FFmpegExecutor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Transcode.FFmpeg.BinaryPath = writeScript(t, dir, "ffmpeg", ffmpegBody)
	cfg.Transcode.FFmpeg.ProbePath = writeScript(t, dir, "ffprobe", "echo 2.0\n")
	input := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(input, []byte("src"), 0o644))
	return NewFFmpegExecutor(cfg), input
}

const okScript = `for last; do :; done
echo "frame=10" >&2
echo "out_time_ms=1000000" >&2
echo "progress=end" >&2
echo out > "$last"
`

func TestFFmpegExecutor_EncodeSingleFile(t *testing.T) {
	e, input := newTestExecutor(t, okScript)
	out := filepath.Join(t.TempDir(), "clip_thumb.jpg")

	var mu sync.Mutex
	var seen []int
	paths, err := e.Encode(context.Background(), port.EncodeRequest{
		InputPath:  input,
		OutputPath: out,
		Options:    vo.ThumbnailOptions(1, 480, 2),
		ProgressCb: func(p int) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, p)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{out}, paths)
	assert.FileExists(t, out)
	assert.Equal(t, []int{50, 100}, seen)
}

func TestFFmpegExecutor_EncodePackageListsDirectory(t *testing.T) {
	script := `for last; do :; done
d=$(dirname "$last")
echo seg > "$d/segment_000.ts"
echo seg > "$d/segment_001.ts"
echo master > "$d/master.m3u8"
echo pl > "$last"
`
	e, input := newTestExecutor(t, script)
	dir := filepath.Join(t.TempDir(), "hls")
	playlist := filepath.Join(dir, "playlist.m3u8")

	paths, err := e.Encode(context.Background(), port.EncodeRequest{
		InputPath:  input,
		OutputPath: playlist,
		Options:    vo.AdaptiveOptions("libx264", 720, 23, "veryfast", "128k", 6, "master.m3u8"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "master.m3u8"),
		playlist,
		filepath.Join(dir, "segment_000.ts"),
		filepath.Join(dir, "segment_001.ts"),
	}, paths)
}

func TestFFmpegExecutor_EncodeFailureCarriesStderr(t *testing.T) {
	e, input := newTestExecutor(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")
	_, err := e.Encode(context.Background(), port.EncodeRequest{
		InputPath:  input,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		Options:    vo.PreviewOptions("libx264", 480, 28, "fast", "copy", "128k"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestFFmpegExecutor_CancelledContext(t *testing.T) {
	e, input := newTestExecutor(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Encode(ctx, port.EncodeRequest{
		InputPath:  input,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		Options:    vo.PreviewOptions("libx264", 480, 28, "fast", "copy", "128k"),
	})
	assert.Error(t, err)
}

func TestFFmpegExecutor_BuildArgs(t *testing.T) {
	e := NewFFmpegExecutor(nil)
	args := e.buildArgs(port.EncodeRequest{
		InputPath:  "/s/in.mp4",
		OutputPath: "/s/hls/playlist.m3u8",
		Options:    vo.AdaptiveOptions("libx264", 720, 23, "veryfast", "128k", 6, "master.m3u8"),
	})
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i /s/in.mp4")
	assert.Contains(t, joined, "-hls_segment_filename /s/hls/segment_%03d.ts")
	assert.Equal(t, "/s/hls/playlist.m3u8", args[len(args)-1])

	thumb := e.buildArgs(port.EncodeRequest{
		InputPath:  "/s/in.mp4",
		OutputPath: "/s/t.jpg",
		Options:    vo.ThumbnailOptions(1, 480, 2),
	})
	ss := indexOf(thumb, "-ss")
	in := indexOf(thumb, "-i")
	require.True(t, ss >= 0 && in > ss, "seek must precede the input")
}

func TestScanFFmpegProgress(t *testing.T) {
	input := strings.Join([]string{
		"Input #0, mov,mp4",
		"out_time_ms=2500000",
		"frame=100",
		"size=    1024kB time=00:00:09.00 bitrate=...",
		"Conversion failed!",
	}, "\n")
	var got []int
	ring := newLineRing(2)
	scanFFmpegProgress(strings.NewReader(input), 10, ring, func(p int) { got = append(got, p) })

	assert.Equal(t, []int{25, 90}, got)
	assert.Equal(t, []string{"Input #0, mov,mp4", "Conversion failed!"}, ring.lines())
}

func indexOf(args []string, v string) int {
	for i, a := range args {
		if a == v {
			return i
		}
	}
	return -1
}
