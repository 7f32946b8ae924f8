package service

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/pkg/config"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

// MetaOriginalVideo 产物上的溯源字段，指向源 key
const MetaOriginalVideo = "originalVideo"

const (
	ContentTypeManifest = "application/x-mpegURL"
	ContentTypeSegment  = "video/MP2T"
	ContentTypeJPEG     = "image/jpeg"
	ContentTypeMP4      = "video/mp4"
	ContentTypeDefault  = "application/octet-stream"
	manifestExt         = ".m3u8"
)

// ContentTypeFor 根据扩展名推断 content-type
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case manifestExt:
		return ContentTypeManifest
	case ".ts":
		return ContentTypeSegment
	case ".jpg", ".jpeg":
		return ContentTypeJPEG
	case ".mp4":
		return ContentTypeMP4
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return ContentTypeDefault
}

// PublishRequest 单文件发布
type PublishRequest struct {
	Bucket         string
	LocalPath      string
	DestinationKey string
	ContentType    string
	SourceKey      string
}

// PackageRequest 多文件发布，文件名保持不变放到 Prefix 下
type PackageRequest struct {
	Bucket     string
	LocalPaths []string
	Prefix     string
	SourceKey  string
}

// ArtifactPublisher 上传产物、设置公开读并返回规范 URL
type ArtifactPublisher interface {
	Publish(ctx context.Context, req PublishRequest) (string, error)
	// PublishPackage returns the destination keys in upload order.
	PublishPackage(ctx context.Context, req PackageRequest) ([]string, error)
	URL(bucket, key string) string
}

type artifactPublisherImpl struct {
	logger  *logger.Logger
	storage gateway.StorageGateway
	scheme  string
	host    string
}

// NewArtifactPublisher 创建发布器
func NewArtifactPublisher(log *logger.Logger, storage gateway.StorageGateway, cfg *config.Config) ArtifactPublisher {
	if cfg == nil {
		cfg = config.Default()
	}
	return &artifactPublisherImpl{
		logger:  log,
		storage: storage,
		scheme:  cfg.Public.Scheme,
		host:    strings.TrimRight(cfg.Public.StorageHost, "/"),
	}
}

func (p *artifactPublisherImpl) URL(bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", p.scheme, p.host, bucket, strings.TrimLeft(key, "/"))
}

func (p *artifactPublisherImpl) Publish(ctx context.Context, req PublishRequest) (string, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(req.DestinationKey)
	}
	if err := p.upload(ctx, req.Bucket, req.LocalPath, req.DestinationKey, contentType, req.SourceKey); err != nil {
		return "", err
	}
	if err := p.storage.SetPublic(ctx, req.Bucket, req.DestinationKey); err != nil {
		return "", errno.Wrap(errno.ErrPublishVisibility, fmt.Errorf("%s: %w", req.DestinationKey, err))
	}
	url := p.URL(req.Bucket, req.DestinationKey)
	p.logger.Infof("Artifact published key=%s url=%s", req.DestinationKey, url)
	return url, nil
}

func (p *artifactPublisherImpl) PublishPackage(ctx context.Context, req PackageRequest) ([]string, error) {
	if len(req.LocalPaths) == 0 {
		return nil, errno.ErrEmptyPackage
	}
	prefix := strings.TrimRight(req.Prefix, "/")
	files := orderPackage(req.LocalPaths)

	keys := make([]string, 0, len(files))
	for _, local := range files {
		key := prefix + "/" + filepath.Base(local)
		if err := p.upload(ctx, req.Bucket, local, key, ContentTypeFor(key), req.SourceKey); err != nil {
			p.rollbackPackage(ctx, req.Bucket, prefix, append(keys, key))
			return nil, err
		}
		keys = append(keys, key)
	}

	// 上传全部完成后再公开，清单不会早于分片可见
	for _, key := range keys {
		if err := p.storage.SetPublic(ctx, req.Bucket, key); err != nil {
			return keys, errno.Wrap(errno.ErrPublishVisibility, fmt.Errorf("%s: %w", key, err))
		}
	}
	p.logger.Infof("Package published prefix=%s files=%d", prefix, len(keys))
	return keys, nil
}

func (p *artifactPublisherImpl) upload(ctx context.Context, bucket, localPath, key, contentType, sourceKey string) error {
	err := p.storage.Upload(ctx, gateway.UploadObject{
		Bucket:      bucket,
		Key:         key,
		LocalPath:   localPath,
		ContentType: contentType,
		Metadata:    map[string]string{MetaOriginalVideo: sourceKey},
	})
	if err != nil {
		return errno.Wrap(errno.ErrUpload, fmt.Errorf("%s: %w", key, err))
	}
	return nil
}

// rollbackPackage removes objects this call uploaded under prefix. Objects
// under the prefix that this call did not write are left alone.
func (p *artifactPublisherImpl) rollbackPackage(ctx context.Context, bucket, prefix string, attempted []string) {
	own := make(map[string]struct{}, len(attempted))
	for _, k := range attempted {
		own[k] = struct{}{}
	}
	objects, err := p.storage.List(ctx, bucket, prefix+"/")
	if err != nil {
		p.logger.Warnf("Package rollback list failed prefix=%s error=%v", prefix, err)
		return
	}
	for _, obj := range objects {
		if _, ok := own[obj.Key]; !ok {
			continue
		}
		if err := p.storage.Remove(ctx, bucket, obj.Key); err != nil {
			p.logger.Warnf("Package rollback remove failed key=%s error=%v", obj.Key, err)
		}
	}
}

// orderPackage 分片在前、清单在后，同类按文件名排序
func orderPackage(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool {
		mi := strings.EqualFold(filepath.Ext(out[i]), manifestExt)
		mj := strings.EqualFold(filepath.Ext(out[j]), manifestExt)
		if mi != mj {
			return !mi
		}
		return filepath.Base(out[i]) < filepath.Base(out[j])
	})
	return out
}
