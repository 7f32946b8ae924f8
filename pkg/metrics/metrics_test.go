package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"derivative-service/ddd/domain/vo"
)

func TestObserveJob(t *testing.T) {
	published := testutil.ToFloat64(JobResults.WithLabelValues("preview", "published"))
	failed := testutil.ToFloat64(JobResults.WithLabelValues("hls", "failed"))
	artifacts := testutil.ToFloat64(PublishedArtifacts)

	ok := vo.Published(vo.KindPreview, "https://h/b/k")
	ok.Duration = 3 * time.Second
	ObserveJob(ok)
	ObserveJob(vo.Failed(vo.KindAdaptivePackage, errors.New("encode")))

	assert.Equal(t, published+1, testutil.ToFloat64(JobResults.WithLabelValues("preview", "published")))
	assert.Equal(t, failed+1, testutil.ToFloat64(JobResults.WithLabelValues("hls", "failed")))
	assert.Equal(t, artifacts+1, testutil.ToFloat64(PublishedArtifacts))
}

func TestObserveInvocation(t *testing.T) {
	before := testutil.ToFloat64(Invocations.WithLabelValues("partial"))
	ObserveInvocation("partial")
	assert.Equal(t, before+1, testutil.ToFloat64(Invocations.WithLabelValues("partial")))
}
