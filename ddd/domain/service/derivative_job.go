package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"derivative-service/ddd/domain/port"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/config"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

// JobInput 单个派生任务的输入，三个任务共享同一只读源文件
type JobInput struct {
	InvocationID string
	Bucket       string
	SourcePath   string
	Plan         vo.DerivationPlan
	Area         *StagingArea
}

// DerivativeJob 编码、发布、删除本地产物，严格按此顺序
type DerivativeJob interface {
	Kind() vo.DerivativeKind
	Run(ctx context.Context, in JobInput) vo.DerivativeJobResult
}

// jobBase 三个任务共用的依赖
type jobBase struct {
	logger    *logger.Logger
	encoder   port.Encoder
	publisher ArtifactPublisher
	progress  port.ProgressSink
}

func (b *jobBase) encode(ctx context.Context, in JobInput, output string, opts vo.EncodeOptions) ([]string, error) {
	outputs, err := b.encoder.Encode(ctx, port.EncodeRequest{
		InputPath:  in.SourcePath,
		OutputPath: output,
		Options:    opts,
		ProgressCb: b.progressCallback(ctx, in.InvocationID, opts.Kind),
		RequestID:  in.InvocationID,
	})
	if err != nil {
		return nil, errno.Wrap(errno.ErrEncode, fmt.Errorf("%s: %w", opts.Kind, err))
	}
	return outputs, nil
}

// progressCallback forwards changed percentages to the sink. Sink errors are
// logged and dropped.
func (b *jobBase) progressCallback(ctx context.Context, invocationID string, kind vo.DerivativeKind) port.ProgressCallback {
	if b.progress == nil {
		return nil
	}
	var last atomic.Int64
	last.Store(-1)
	return func(pct int) {
		if last.Swap(int64(pct)) == int64(pct) {
			return
		}
		if err := b.progress.SaveProgress(ctx, invocationID, kind, pct); err != nil {
			b.logger.Debugf("Progress save failed invocation_id=%s kind=%s error=%v", invocationID, kind, err)
		}
	}
}

// finish deletes the local output after publish. A publish error always wins
// over a cleanup error.
func (b *jobBase) finish(kind vo.DerivativeKind, localPath, url string, publishErr error) vo.DerivativeJobResult {
	cleanupErr := removeIfExists(localPath)
	if publishErr != nil {
		if cleanupErr != nil {
			b.logger.Warnf("Local cleanup after failed publish failed kind=%s path=%s error=%v", kind, localPath, cleanupErr)
		}
		return vo.Failed(kind, publishErr)
	}
	if cleanupErr != nil {
		return vo.Failed(kind, errno.Wrap(errno.ErrLocalCleanup, cleanupErr))
	}
	return vo.Published(kind, url)
}

// ---------------- Thumbnail ----------------

type thumbnailJob struct {
	jobBase
	opts vo.EncodeOptions
}

// NewThumbnailJob 封面截图任务
func NewThumbnailJob(log *logger.Logger, encoder port.Encoder, publisher ArtifactPublisher, progress port.ProgressSink, cfg *config.Config) DerivativeJob {
	if cfg == nil {
		cfg = config.Default()
	}
	tc := cfg.Transcode.Thumbnail
	return &thumbnailJob{
		jobBase: jobBase{logger: log, encoder: encoder, publisher: publisher, progress: progress},
		opts:    vo.ThumbnailOptions(tc.OffsetSeconds, tc.Width, tc.Quality),
	}
}

func (j *thumbnailJob) Kind() vo.DerivativeKind { return vo.KindThumbnail }

func (j *thumbnailJob) Run(ctx context.Context, in JobInput) vo.DerivativeJobResult {
	output := in.Area.OutputPath(in.Plan.ThumbnailName)
	if _, err := j.encode(ctx, in, output, j.opts); err != nil {
		_ = removeIfExists(output)
		return vo.Failed(j.Kind(), err)
	}
	url, err := j.publisher.Publish(ctx, PublishRequest{
		Bucket:         in.Bucket,
		LocalPath:      output,
		DestinationKey: in.Plan.ThumbnailKey,
		ContentType:    ContentTypeJPEG,
		SourceKey:      in.Plan.SourceKey,
	})
	return j.finish(j.Kind(), output, url, err)
}

// ---------------- Preview ----------------

type previewJob struct {
	jobBase
	opts          vo.EncodeOptions
	fallbackAudio string
	audioBitrate  string
}

// NewPreviewJob 低分辨率预览任务
func NewPreviewJob(log *logger.Logger, encoder port.Encoder, publisher ArtifactPublisher, progress port.ProgressSink, cfg *config.Config) DerivativeJob {
	if cfg == nil {
		cfg = config.Default()
	}
	pc := cfg.Transcode.Preview
	return &previewJob{
		jobBase:       jobBase{logger: log, encoder: encoder, publisher: publisher, progress: progress},
		opts:          vo.PreviewOptions(cfg.Transcode.FFmpeg.VideoCodec, pc.Height, pc.CRF, pc.Preset, pc.AudioCodec, pc.AudioBitrate),
		fallbackAudio: pc.FallbackAudio,
		audioBitrate:  pc.AudioBitrate,
	}
}

func (j *previewJob) Kind() vo.DerivativeKind { return vo.KindPreview }

func (j *previewJob) Run(ctx context.Context, in JobInput) vo.DerivativeJobResult {
	output := in.Area.OutputPath(in.Plan.PreviewName)
	_, err := j.encode(ctx, in, output, j.opts)
	// 音频流无法直接复制到目标容器时重新编码一次
	if err != nil && j.opts.AudioCodec == "copy" && j.fallbackAudio != "" && ctx.Err() == nil {
		j.logger.Warnf("Preview audio copy failed, retrying with %s invocation_id=%s error=%v", j.fallbackAudio, in.InvocationID, err)
		_ = removeIfExists(output)
		_, err = j.encode(ctx, in, output, j.opts.WithAudio(j.fallbackAudio, j.audioBitrate))
	}
	if err != nil {
		_ = removeIfExists(output)
		return vo.Failed(j.Kind(), err)
	}
	url, err := j.publisher.Publish(ctx, PublishRequest{
		Bucket:         in.Bucket,
		LocalPath:      output,
		DestinationKey: in.Plan.PreviewKey,
		ContentType:    ContentTypeFor(in.Plan.PreviewKey),
		SourceKey:      in.Plan.SourceKey,
	})
	return j.finish(j.Kind(), output, url, err)
}

// ---------------- Adaptive package ----------------

type adaptivePackageJob struct {
	jobBase
	opts         vo.EncodeOptions
	playlistName string
}

// NewAdaptivePackageJob HLS 切片任务
func NewAdaptivePackageJob(log *logger.Logger, encoder port.Encoder, publisher ArtifactPublisher, progress port.ProgressSink, cfg *config.Config) DerivativeJob {
	if cfg == nil {
		cfg = config.Default()
	}
	hc := cfg.Transcode.HLS
	return &adaptivePackageJob{
		jobBase:      jobBase{logger: log, encoder: encoder, publisher: publisher, progress: progress},
		opts:         vo.AdaptiveOptions(cfg.Transcode.FFmpeg.VideoCodec, hc.Height, hc.CRF, hc.Preset, hc.AudioBitrate, hc.SegmentSeconds, hc.MasterName),
		playlistName: hc.PlaylistName,
	}
}

func (j *adaptivePackageJob) Kind() vo.DerivativeKind { return vo.KindAdaptivePackage }

func (j *adaptivePackageJob) Run(ctx context.Context, in JobInput) vo.DerivativeJobResult {
	dir := in.Area.HLSDir()
	if _, err := j.encode(ctx, in, filepath.Join(dir, j.playlistName), j.opts); err != nil {
		_ = removeIfExists(dir)
		return vo.Failed(j.Kind(), err)
	}

	files, err := listPackageFiles(dir)
	if err != nil {
		_ = removeIfExists(dir)
		return vo.Failed(j.Kind(), errno.Wrap(errno.ErrEncode, err))
	}
	if len(files) == 0 {
		return vo.Failed(j.Kind(), errno.ErrEmptyPackage)
	}
	j.logger.Infof("Adaptive package produced invocation_id=%s files=%d", in.InvocationID, len(files))

	_, err = j.publisher.PublishPackage(ctx, PackageRequest{
		Bucket:     in.Bucket,
		LocalPaths: files,
		Prefix:     in.Plan.HLSPrefix,
		SourceKey:  in.Plan.SourceKey,
	})
	url := ""
	if err == nil {
		url = j.publisher.URL(in.Bucket, in.Plan.HLSKey(j.playlistName))
	}
	return j.finish(j.Kind(), dir, url, err)
}

// listPackageFiles 枚举编码器写入切片目录的全部文件
func listPackageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
