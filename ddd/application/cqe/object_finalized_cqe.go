package cqe

import (
	"encoding/json"
	"strings"

	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
)

// ObjectFinalizedCmd 对象写入完成事件，字段与存储端 finalize 通知一致
type ObjectFinalizedCmd struct {
	Bucket      string            `json:"bucket" binding:"required"`
	Name        string            `json:"name" binding:"required"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DecodeObjectFinalized 解析 Kafka 消息体并校验
func DecodeObjectFinalized(payload []byte) (*ObjectFinalizedCmd, error) {
	var cmd ObjectFinalizedCmd
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, errno.Wrap(errno.ErrInvalidParam, err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (c *ObjectFinalizedCmd) Validate() error {
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Name = strings.TrimSpace(c.Name)
	if c.Bucket == "" {
		return errno.ErrBucketRequired
	}
	if c.Name == "" {
		return errno.ErrObjectKeyRequired
	}
	return nil
}

// ToSourceObject 转为领域对象，metadata 复制一份
func (c *ObjectFinalizedCmd) ToSourceObject() vo.SourceObject {
	meta := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		meta[k] = v
	}
	return vo.SourceObject{
		Bucket:      c.Bucket,
		Key:         c.Name,
		ContentType: c.ContentType,
		Metadata:    meta,
	}
}
