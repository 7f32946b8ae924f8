package errno

import "errors"

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam   = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized   = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound       = &Errno{Code: 404, Message: "Not found"}
	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}

	// 派生流水线错误码
	ErrStructuralKey         = &Errno{Code: 21001, Message: "source key is malformed"}
	ErrStagingCreate         = &Errno{Code: 21002, Message: "staging area create failed"}
	ErrDownload              = &Errno{Code: 21003, Message: "source download failed"}
	ErrEncode                = &Errno{Code: 21004, Message: "encode failed"}
	ErrUpload                = &Errno{Code: 21005, Message: "artifact upload failed"}
	ErrPublishVisibility     = &Errno{Code: 21006, Message: "artifact visibility update failed"}
	ErrLocalCleanup          = &Errno{Code: 21007, Message: "local output cleanup failed"}
	ErrMetadataReconcile     = &Errno{Code: 21008, Message: "metadata reconcile failed"}
	ErrEmptyPackage          = &Errno{Code: 21009, Message: "adaptive package produced no files"}
	ErrDerivativeJobsFailed  = &Errno{Code: 21010, Message: "derivative jobs failed"}
	ErrMetadataStoreDisabled = &Errno{Code: 21011, Message: "metadata store not configured"}

	// 触发事件校验
	ErrBucketRequired    = &Errno{Code: 21101, Message: "bucket is required"}
	ErrObjectKeyRequired = &Errno{Code: 21102, Message: "object name is required"}
)

// wrapped 同时保留错误码与底层原因，errors.Is 对两者均可命中
type wrapped struct {
	base  *Errno
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.base.Message
	}
	return w.base.Message + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	if w.cause == nil {
		return []error{w.base}
	}
	return []error{w.base, w.cause}
}

// Wrap attaches a taxonomy code to cause. A nil cause yields the bare code.
func Wrap(base *Errno, cause error) error {
	return &wrapped{base: base, cause: cause}
}

// CodeOf returns the first taxonomy code found in err's chain, or nil.
func CodeOf(err error) *Errno {
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return nil
}
