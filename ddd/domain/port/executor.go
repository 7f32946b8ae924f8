package port

import (
	"context"

	"derivative-service/ddd/domain/vo"
)

// ProgressCallback is invoked by executors to report percentage progress (0-100).
type ProgressCallback func(progress int)

// EncodeRequest 一次编码调用
type EncodeRequest struct {
	InputPath string
	// OutputPath is the single output file, or the variant playlist for an
	// adaptive package whose segments land in the same directory.
	OutputPath string
	Options    vo.EncodeOptions
	ProgressCb ProgressCallback
	RequestID  string
}

// Encoder wraps the external encoding tool. Encode blocks until the tool
// exits and returns every file it produced.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) (outputPaths []string, err error)
}
