package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"derivative-service/ddd/domain/port"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

const stderrTailLines = 50

var reTime = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

// FFmpegExecutor implements port.Encoder by running the local ffmpeg binary.
type FFmpegExecutor struct {
	binary  string
	probe   string
	threads int
	timeout time.Duration
	banner  bool
}

func NewFFmpegExecutor(cfg *config.Config) *FFmpegExecutor {
	if cfg == nil {
		cfg = config.Default()
	}
	ff := cfg.Transcode.FFmpeg
	return &FFmpegExecutor{
		binary:  ff.BinaryPath,
		probe:   ff.ProbePath,
		threads: ff.Threads,
		timeout: ff.Timeout,
		banner:  !ff.HideBanner,
	}
}

// Encode runs one ffmpeg process and returns the files it wrote. For an
// adaptive package that is every file in the playlist's directory.
func (e *FFmpegExecutor) Encode(ctx context.Context, req port.EncodeRequest) ([]string, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return nil, errors.New("input and output paths are required")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	durationSec := e.probeDurationSeconds(ctx, req.InputPath)
	cmd := exec.CommandContext(ctx, e.binary, e.buildArgs(req)...)
	logger.Infof("ffmpeg command request_id=%s kind=%s command=%s", req.RequestID, req.Options.Kind, strings.Join(cmd.Args, " "))
	if err := e.executeFFmpegCommand(ctx, cmd, durationSec, req.ProgressCb); err != nil {
		return nil, err
	}
	if req.ProgressCb != nil {
		req.ProgressCb(100)
	}

	if req.Options.HLS == nil {
		return []string{req.OutputPath}, nil
	}
	return listDir(filepath.Dir(req.OutputPath))
}

func (e *FFmpegExecutor) buildArgs(req port.EncodeRequest) []string {
	opts := req.Options
	args := make([]string, 0, 32)
	if !e.banner {
		args = append(args, "-hide_banner")
	}
	args = append(args, "-y")
	args = append(args, opts.InputArgs()...)
	args = append(args,
		"-probesize", "5M",
		"-analyzeduration", "5M",
		"-i", req.InputPath,
		"-progress", "pipe:2",
		"-nostats",
	)
	args = append(args, opts.OutputArgs()...)
	if opts.HLS != nil {
		args = append(args, "-hls_segment_filename", filepath.Join(filepath.Dir(req.OutputPath), opts.HLS.SegmentPattern))
	}
	if e.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.threads))
	}
	return append(args, req.OutputPath)
}

func (e *FFmpegExecutor) executeFFmpegCommand(ctx context.Context, cmd *exec.Cmd, durationSec float64, progressCb port.ProgressCallback) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("创建FFmpeg stderr管道失败: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动FFmpeg命令失败: %w", err)
	}

	progressDone := make(chan struct{})
	tail := newLineRing(stderrTailLines)
	go func() {
		defer close(progressDone)
		scanFFmpegProgress(stderr, durationSec, tail, progressCb)
	}()

	// stderr 必须读完后再 Wait
	<-progressDone
	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
	}
	if err != nil {
		lines := tail.lines()
		if len(lines) > 0 {
			logger.Errorf("ffmpeg failed tail_stderr=%s", strings.Join(lines, "\n"))
			return fmt.Errorf("ffmpeg: %w: %s", err, lines[len(lines)-1])
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func scanFFmpegProgress(stderr io.Reader, durationSec float64, capture *lineRing, progressCb port.ProgressCallback) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "out_time_ms=") {
			if ms, err := strconv.ParseFloat(strings.TrimPrefix(line, "out_time_ms="), 64); err == nil {
				emitProgress(ms/1e6, durationSec, progressCb)
			}
			continue
		}
		if m := reTime.FindStringSubmatch(line); len(m) == 4 {
			hh, _ := strconv.ParseFloat(m[1], 64)
			mm, _ := strconv.ParseFloat(m[2], 64)
			ss, _ := strconv.ParseFloat(m[3], 64)
			emitProgress(hh*3600+mm*60+ss, durationSec, progressCb)
			continue
		}
		if isProgressKey(line) {
			continue
		}
		capture.push(line)
	}
}

// isProgressKey 过滤 -progress 输出的其余 key=value 行
func isProgressKey(line string) bool {
	k, _, ok := strings.Cut(line, "=")
	if !ok {
		return false
	}
	switch k {
	case "frame", "fps", "stream_0_0_q", "bitrate", "total_size", "out_time_us", "out_time",
		"dup_frames", "drop_frames", "speed", "progress":
		return true
	}
	return false
}

func emitProgress(currentSec, totalSec float64, cb port.ProgressCallback) {
	if cb == nil || totalSec <= 0 {
		return
	}
	pct := int((currentSec / totalSec) * 100)
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	cb(pct)
}

// probeDurationSeconds 调用 ffprobe 获取输入时长（秒），失败则返回 0。
func (e *FFmpegExecutor) probeDurationSeconds(ctx context.Context, inputPath string) float64 {
	if e.probe == "" {
		return 0
	}
	cmd := exec.CommandContext(ctx, e.probe, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", inputPath)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return val
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list encoder output: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() {
			out = append(out, filepath.Join(dir, ent.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// lineRing keeps the last n stderr lines for error reporting.
type lineRing struct {
	buf []string
	max int
}

func newLineRing(n int) *lineRing {
	return &lineRing{buf: make([]string, 0, n), max: n}
}

func (r *lineRing) push(line string) {
	if len(r.buf) >= r.max {
		r.buf = r.buf[1:]
	}
	r.buf = append(r.buf, line)
}

func (r *lineRing) lines() []string {
	return append([]string(nil), r.buf...)
}
