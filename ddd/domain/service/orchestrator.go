package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/fanout"
	"derivative-service/pkg/logger"
)

// JobsFailedError 汇总失败任务。已发布的兄弟产物不会被撤回。
type JobsFailedError struct {
	Failures []vo.DerivativeJobResult
}

func (e *JobsFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Kind, f.Err))
	}
	return fmt.Sprintf("%s (%d): %s", errno.ErrDerivativeJobsFailed.Message, len(e.Failures), strings.Join(parts, "; "))
}

// Kinds returns the failed kinds in launch order.
func (e *JobsFailedError) Kinds() []vo.DerivativeKind {
	out := make([]vo.DerivativeKind, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Kind)
	}
	return out
}

func (e *JobsFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, errno.ErrDerivativeJobsFailed)
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// JobObserver receives every job result once the job has finished.
type JobObserver func(result vo.DerivativeJobResult)

// JobOrchestrator 并发执行全部派生任务并等待全部结束
type JobOrchestrator interface {
	Orchestrate(ctx context.Context, in JobInput) (vo.PublishedArtifactSet, error)
}

type jobOrchestratorImpl struct {
	logger   *logger.Logger
	jobs     []DerivativeJob
	observer JobObserver
}

// NewJobOrchestrator 创建编排器，observer 可为空
func NewJobOrchestrator(log *logger.Logger, observer JobObserver, jobs ...DerivativeJob) JobOrchestrator {
	return &jobOrchestratorImpl{logger: log, jobs: jobs, observer: observer}
}

// Orchestrate waits for every job even when some fail; one failure never
// cancels a sibling.
func (o *jobOrchestratorImpl) Orchestrate(ctx context.Context, in JobInput) (vo.PublishedArtifactSet, error) {
	tasks := make([]fanout.Task[vo.DerivativeJobResult], 0, len(o.jobs))
	for _, job := range o.jobs {
		tasks = append(tasks, func(ctx context.Context) (vo.DerivativeJobResult, error) {
			start := time.Now()
			res := job.Run(ctx, in)
			res.Kind = job.Kind()
			res.Duration = time.Since(start)
			return res, nil
		})
	}

	outcomes := fanout.RunAll(ctx, tasks...)
	// task 本身不返回 error，这里只会是 panic
	if panics := fanout.Errors(outcomes); len(panics) > 0 {
		o.logger.Errorf("Derivative jobs panicked invocation_id=%s count=%d errors=%v", in.InvocationID, len(panics), panics)
	}
	results := make([]vo.DerivativeJobResult, 0, len(outcomes))
	var failures []vo.DerivativeJobResult
	for i, out := range outcomes {
		res := out.Value
		if out.Err != nil {
			res = vo.Failed(o.jobs[i].Kind(), out.Err)
		}
		results = append(results, res)
		if res.Status != vo.JobPublished {
			failures = append(failures, res)
			o.logger.Errorf("Derivative job failed invocation_id=%s kind=%s duration=%s error=%v", in.InvocationID, res.Kind, res.Duration, res.Err)
		} else {
			o.logger.Infof("Derivative job published invocation_id=%s kind=%s duration=%s url=%s", in.InvocationID, res.Kind, res.Duration, res.PublishedURL)
		}
		if o.observer != nil {
			o.observer(res)
		}
	}

	set := vo.NewPublishedArtifactSet(results...)
	if len(failures) > 0 {
		return set, &JobsFailedError{Failures: failures}
	}
	return set, nil
}
