package dto

// 调用最终状态
const (
	OutcomeSkipped   = "skipped"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomePartial   = "partial"
	OutcomeCompleted = "completed"
)

// DerivativeOutcomeDTO 一次流水线调用的结果
type DerivativeOutcomeDTO struct {
	InvocationID string            `json:"invocation_id"`
	Bucket       string            `json:"bucket"`
	Key          string            `json:"key"`
	Status       string            `json:"status"`
	Decision     string            `json:"decision,omitempty"`
	URLs         map[string]string `json:"urls,omitempty"`
	FailedKinds  []string          `json:"failed_kinds,omitempty"`
	Error        string            `json:"error,omitempty"`
}
