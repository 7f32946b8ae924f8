package vo

import "strings"

// Metadata keys carried on the uploaded object.
const (
	MetaCorrelationID = "correlationId"
	MetaPostID        = "postId"
)

// SourceObject 触发本次处理的上传对象，调用期间只读
type SourceObject struct {
	Bucket      string
	Key         string
	ContentType string
	// Metadata holds the object's custom metadata: correlation fields and
	// any processing flags the uploader attached.
	Metadata map[string]string
}

// CorrelationID returns the external metadata record id, preferring
// correlationId over the legacy postId field. Empty when neither is set.
func (s SourceObject) CorrelationID() string {
	if id := s.meta(MetaCorrelationID); id != "" {
		return id
	}
	return s.meta(MetaPostID)
}

// meta 查找元数据，存储端可能改写键的大小写
func (s SourceObject) meta(name string) string {
	if v, ok := s.Metadata[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range s.Metadata {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
