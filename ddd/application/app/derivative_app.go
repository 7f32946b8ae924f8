package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"derivative-service/ddd/application/dto"
	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/service"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/metrics"
)

// notifyTimeout 完成事件单独限时，不受调用方 ctx 取消影响
const notifyTimeout = 10 * time.Second

type DerivativeApp interface {
	// Process 处理一个上传完成的对象，生成并发布三种派生产物
	Process(ctx context.Context, src vo.SourceObject) (*dto.DerivativeOutcomeDTO, error)
}

type derivativeAppImpl struct {
	logger       *logger.Logger
	filter       service.EligibilityFilter
	staging      service.StagingManager
	storage      gateway.StorageGateway
	orchestrator service.JobOrchestrator
	reconciler   service.StateReconciler
	notifier     gateway.CompletionNotifier
	newID        func() string
}

// NewDerivativeAppWith notifier 可为空
func NewDerivativeAppWith(
	log *logger.Logger,
	filter service.EligibilityFilter,
	staging service.StagingManager,
	storage gateway.StorageGateway,
	orchestrator service.JobOrchestrator,
	reconciler service.StateReconciler,
	notifier gateway.CompletionNotifier,
) DerivativeApp {
	return &derivativeAppImpl{
		logger:       log,
		filter:       filter,
		staging:      staging,
		storage:      storage,
		orchestrator: orchestrator,
		reconciler:   reconciler,
		notifier:     notifier,
		newID:        uuid.NewString,
	}
}

func (a *derivativeAppImpl) Process(ctx context.Context, src vo.SourceObject) (out *dto.DerivativeOutcomeDTO, err error) {
	out = &dto.DerivativeOutcomeDTO{
		InvocationID: a.newID(),
		Bucket:       src.Bucket,
		Key:          src.Key,
	}
	defer func() {
		if err != nil {
			out.Error = err.Error()
		}
		metrics.ObserveInvocation(out.Status)
	}()

	decision, err := a.filter.Check(src)
	out.Decision = string(decision)
	if err != nil {
		out.Status = dto.OutcomeRejected
		return out, err
	}
	if decision != service.DecisionEligible {
		out.Status = dto.OutcomeSkipped
		a.logger.Infof("Object skipped invocation_id=%s bucket=%s key=%s decision=%s", out.InvocationID, src.Bucket, src.Key, decision)
		return out, nil
	}

	plan := vo.Derive(src.Key)
	a.logger.Infof("Derivation started invocation_id=%s bucket=%s key=%s user_id=%s base=%s", out.InvocationID, src.Bucket, src.Key, plan.UserID, plan.BaseName)

	// area 在 Acquire 之后才赋值，闭包保证任何退出路径都释放一次
	var area *service.StagingArea
	defer func() {
		if relErr := a.staging.Release(area); relErr != nil {
			a.logger.Errorf("Staging cleanup failed invocation_id=%s error=%v", out.InvocationID, relErr)
		}
	}()

	area, err = a.staging.Acquire(out.InvocationID)
	if err != nil {
		out.Status = dto.OutcomeFailed
		a.logger.Errorf("Staging create failed invocation_id=%s error=%v", out.InvocationID, err)
		return out, err
	}

	sourcePath := area.SourcePath(plan.FileName)
	if dlErr := a.storage.Download(ctx, src.Bucket, src.Key, sourcePath); dlErr != nil {
		out.Status = dto.OutcomeFailed
		err = errno.Wrap(errno.ErrDownload, dlErr)
		a.logger.Errorf("Source download failed invocation_id=%s key=%s error=%v", out.InvocationID, src.Key, dlErr)
		return out, err
	}

	set, jobsErr := a.orchestrator.Orchestrate(ctx, service.JobInput{
		InvocationID: out.InvocationID,
		Bucket:       src.Bucket,
		SourcePath:   sourcePath,
		Plan:         plan,
		Area:         area,
	})
	out.URLs = set.URLs()
	out.FailedKinds = failedKinds(jobsErr)
	switch {
	case jobsErr == nil:
		out.Status = dto.OutcomeCompleted
	case set.IsEmpty():
		out.Status = dto.OutcomeFailed
	default:
		out.Status = dto.OutcomePartial
	}

	a.reconcile(ctx, out.InvocationID, src.CorrelationID(), set)
	a.notify(src, out)

	a.logger.Infof("Derivation finished invocation_id=%s status=%s published=%d", out.InvocationID, out.Status, set.Len())
	return out, jobsErr
}

// reconcile 失败只记日志，产物已可通过 URL 访问
func (a *derivativeAppImpl) reconcile(ctx context.Context, invocationID, correlationID string, set vo.PublishedArtifactSet) {
	if correlationID == "" {
		a.logger.Debugf("No correlation id, metadata untouched invocation_id=%s", invocationID)
		return
	}
	if set.IsEmpty() {
		return
	}
	if a.reconciler == nil {
		return
	}
	if err := a.reconciler.Reconcile(ctx, correlationID, set); err != nil {
		if errors.Is(err, errno.ErrMetadataStoreDisabled) {
			a.logger.Warnf("Metadata store disabled, skipped reconcile invocation_id=%s correlation_id=%s", invocationID, correlationID)
			return
		}
		a.logger.Errorf("Metadata reconcile failed invocation_id=%s correlation_id=%s error=%v", invocationID, correlationID, err)
	}
}

func (a *derivativeAppImpl) notify(src vo.SourceObject, out *dto.DerivativeOutcomeDTO) {
	if a.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	err := a.notifier.NotifyCompleted(ctx, gateway.CompletionEvent{
		InvocationID:  out.InvocationID,
		Bucket:        src.Bucket,
		Key:           src.Key,
		CorrelationID: src.CorrelationID(),
		Status:        out.Status,
		URLs:          out.URLs,
		FailedKinds:   out.FailedKinds,
	})
	if err != nil {
		a.logger.Warnf("Completion notify failed invocation_id=%s error=%v", out.InvocationID, err)
	}
}

func failedKinds(err error) []string {
	var jf *service.JobsFailedError
	if !errors.As(err, &jf) {
		return nil
	}
	kinds := make([]string, 0, len(jf.Failures))
	for _, k := range jf.Kinds() {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return kinds
}
