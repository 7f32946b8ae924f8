package service

import (
	"fmt"
	"path"
	"strings"

	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/config"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

// Decision 准入判断结果
type Decision string

const (
	DecisionEligible Decision = "eligible"
	// policy skips, not errors
	DecisionSkipPrefix      Decision = "skip_prefix"
	DecisionSkipDerivative  Decision = "skip_derivative"
	DecisionSkipContentType Decision = "skip_content_type"
	DecisionMalformed       Decision = "malformed"
)

// previewMarker 预览产物固定为 mp4
const previewMarker = vo.PreviewSuffix + ".mp4"

// EligibilityFilter 判断上传对象是否需要处理
type EligibilityFilter interface {
	// Check returns DecisionEligible with a nil error, a skip decision with a
	// nil error, or DecisionMalformed with an errno.ErrStructuralKey error.
	Check(src vo.SourceObject) (Decision, error)
	IsEligible(src vo.SourceObject) bool
}

type eligibilityFilterImpl struct {
	logger            *logger.Logger
	videoPrefix       string
	contentTypePrefix string
}

// NewEligibilityFilter 创建准入过滤器
func NewEligibilityFilter(log *logger.Logger, cfg *config.Config) EligibilityFilter {
	if cfg == nil {
		cfg = config.Default()
	}
	return &eligibilityFilterImpl{
		logger:            log,
		videoPrefix:       cfg.Pipeline.VideoPrefix,
		contentTypePrefix: cfg.Pipeline.ContentTypePrefix,
	}
}

func (f *eligibilityFilterImpl) Check(src vo.SourceObject) (Decision, error) {
	if !strings.HasPrefix(src.Key, f.videoPrefix) {
		return DecisionSkipPrefix, nil
	}
	// 派生产物被重新投递时避免循环处理
	if isPreviewDerivative(src.Key) {
		return DecisionSkipDerivative, nil
	}
	if !strings.HasPrefix(src.ContentType, f.contentTypePrefix) {
		return DecisionSkipContentType, nil
	}

	segments := strings.Split(src.Key, "/")
	if len(segments) < 3 {
		err := errno.Wrap(errno.ErrStructuralKey, fmt.Errorf("key %q has %d segments, want videos/{userId}/{fileName}", src.Key, len(segments)))
		f.logger.Errorf("Structural error bucket=%s key=%s error=%v", src.Bucket, src.Key, err)
		return DecisionMalformed, err
	}
	if segments[1] == "" || segments[len(segments)-1] == "" {
		err := errno.Wrap(errno.ErrStructuralKey, fmt.Errorf("key %q has an empty userId or fileName", src.Key))
		f.logger.Errorf("Structural error bucket=%s key=%s error=%v", src.Bucket, src.Key, err)
		return DecisionMalformed, err
	}
	return DecisionEligible, nil
}

func (f *eligibilityFilterImpl) IsEligible(src vo.SourceObject) bool {
	d, _ := f.Check(src)
	return d == DecisionEligible
}

// isPreviewDerivative 命中 _preview.mp4，或最后一段文件名去掉扩展名后以 _preview 结尾
func isPreviewDerivative(key string) bool {
	if strings.Contains(key, previewMarker) {
		return true
	}
	name := path.Base(key)
	return strings.HasSuffix(strings.TrimSuffix(name, path.Ext(name)), vo.PreviewSuffix)
}
