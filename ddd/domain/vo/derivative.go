package vo

import (
	"sort"
	"time"
)

// DerivativeKind 派生产物类型
type DerivativeKind string

const (
	KindThumbnail       DerivativeKind = "thumbnail"
	KindPreview         DerivativeKind = "preview"
	KindAdaptivePackage DerivativeKind = "hls"
)

// AllKinds lists every derivative a full invocation produces.
var AllKinds = []DerivativeKind{KindThumbnail, KindPreview, KindAdaptivePackage}

func (k DerivativeKind) String() string { return string(k) }

// JobStatus 单个派生任务结果状态
type JobStatus string

const (
	JobPublished JobStatus = "published"
	JobFailed    JobStatus = "failed"
)

// DerivativeJobResult 单个派生任务的结果
type DerivativeJobResult struct {
	Kind         DerivativeKind
	Status       JobStatus
	PublishedURL string
	Err          error
	Duration     time.Duration
}

// Published builds a successful result.
func Published(kind DerivativeKind, url string) DerivativeJobResult {
	return DerivativeJobResult{Kind: kind, Status: JobPublished, PublishedURL: url}
}

// Failed builds a failed result preserving the originating error.
func Failed(kind DerivativeKind, err error) DerivativeJobResult {
	return DerivativeJobResult{Kind: kind, Status: JobFailed, Err: err}
}

// PublishedArtifactSet 已发布产物及其 URL。已发布的产物不会因兄弟任务失败而撤回。
type PublishedArtifactSet struct {
	urls map[DerivativeKind]string
}

// NewPublishedArtifactSet collects the Published entries of results.
func NewPublishedArtifactSet(results ...DerivativeJobResult) PublishedArtifactSet {
	s := PublishedArtifactSet{urls: make(map[DerivativeKind]string)}
	for _, r := range results {
		if r.Status == JobPublished {
			s.urls[r.Kind] = r.PublishedURL
		}
	}
	return s
}

// URL returns the canonical URL for kind and whether it was published.
func (s PublishedArtifactSet) URL(kind DerivativeKind) (string, bool) {
	u, ok := s.urls[kind]
	return u, ok
}

func (s PublishedArtifactSet) Len() int { return len(s.urls) }

func (s PublishedArtifactSet) IsEmpty() bool { return len(s.urls) == 0 }

// Complete reports whether every derivative kind was published.
func (s PublishedArtifactSet) Complete() bool {
	for _, k := range AllKinds {
		if _, ok := s.urls[k]; !ok {
			return false
		}
	}
	return true
}

// Kinds returns the published kinds in a stable order.
func (s PublishedArtifactSet) Kinds() []DerivativeKind {
	out := make([]DerivativeKind, 0, len(s.urls))
	for k := range s.urls {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// URLs returns a copy keyed by kind name, for logging and events.
func (s PublishedArtifactSet) URLs() map[string]string {
	out := make(map[string]string, len(s.urls))
	for k, v := range s.urls {
		out[string(k)] = v
	}
	return out
}
