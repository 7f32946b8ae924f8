package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/port"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

type memObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	public      bool
}

// memStorage is an in-memory StorageGateway with per-key failure injection.
type memStorage struct {
	mu         sync.Mutex
	objects    map[string]*memObject
	uploads    []string
	downloads  int
	failUpload func(key string) error
	failPublic func(key string) error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string]*memObject)}
}

func objectID(bucket, key string) string { return bucket + "/" + key }

func (s *memStorage) put(bucket, key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectID(bucket, key)] = &memObject{data: data, contentType: contentType}
}

func (s *memStorage) get(bucket, key string) (*memObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[objectID(bucket, key)]
	return o, ok
}

func (s *memStorage) Download(_ context.Context, bucket, key, localPath string) error {
	s.mu.Lock()
	s.downloads++
	o, ok := s.objects[objectID(bucket, key)]
	s.mu.Unlock()
	if !ok {
		return errors.New("no such key")
	}
	return os.WriteFile(localPath, o.data, 0o644)
}

func (s *memStorage) Upload(_ context.Context, obj gateway.UploadObject) error {
	if s.failUpload != nil {
		if err := s.failUpload(obj.Key); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(obj.LocalPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, obj.Key)
	s.objects[objectID(obj.Bucket, obj.Key)] = &memObject{data: data, contentType: obj.ContentType, metadata: obj.Metadata}
	return nil
}

func (s *memStorage) SetPublic(_ context.Context, bucket, key string) error {
	if s.failPublic != nil {
		if err := s.failPublic(key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[objectID(bucket, key)]
	if !ok {
		return errors.New("no such key")
	}
	o.public = true
	return nil
}

func (s *memStorage) List(_ context.Context, bucket, prefix string) ([]gateway.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []gateway.ObjectInfo
	for id, o := range s.objects {
		key := strings.TrimPrefix(id, bucket+"/")
		if key == id || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, gateway.ObjectInfo{Key: key, Size: int64(len(o.data)), ContentType: o.contentType})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memStorage) Remove(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectID(bucket, key))
	return nil
}

func (s *memStorage) Stat(_ context.Context, bucket, key string) (gateway.ObjectInfo, error) {
	o, ok := s.get(bucket, key)
	if !ok {
		return gateway.ObjectInfo{}, errors.New("no such key")
	}
	return gateway.ObjectInfo{Key: key, Size: int64(len(o.data)), ContentType: o.contentType, Metadata: o.metadata}, nil
}

func (s *memStorage) keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id := range s.objects {
		if k, ok := strings.CutPrefix(id, bucket+"/"); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// fakeEncoder writes placeholder files in place of running ffmpeg.
type fakeEncoder struct {
	mu    sync.Mutex
	calls []port.EncodeRequest
	fail  map[vo.DerivativeKind]error
	// failAudioCopy rejects requests that copy the audio stream.
	failAudioCopy bool
	// before runs at the start of every call; used to block or synchronize.
	before func(kind vo.DerivativeKind)
}

func (e *fakeEncoder) Encode(_ context.Context, req port.EncodeRequest) ([]string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req)
	e.mu.Unlock()
	if e.before != nil {
		e.before(req.Options.Kind)
	}
	if err := e.fail[req.Options.Kind]; err != nil {
		return nil, err
	}
	if e.failAudioCopy && req.Options.AudioCodec == "copy" {
		return nil, errors.New("could not find tag for codec in stream #1")
	}
	if req.ProgressCb != nil {
		req.ProgressCb(50)
		req.ProgressCb(50)
		req.ProgressCb(100)
	}

	if req.Options.HLS == nil {
		return []string{req.OutputPath}, os.WriteFile(req.OutputPath, []byte(string(req.Options.Kind)), 0o644)
	}
	dir := filepath.Dir(req.OutputPath)
	outputs := []string{
		req.OutputPath,
		filepath.Join(dir, req.Options.HLS.MasterName),
		filepath.Join(dir, "segment_000.ts"),
		filepath.Join(dir, "segment_001.ts"),
	}
	for _, p := range outputs {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func (e *fakeEncoder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type progressRecord struct {
	kind vo.DerivativeKind
	pct  int
}

type memProgress struct {
	mu      sync.Mutex
	records []progressRecord
}

func (p *memProgress) SaveProgress(_ context.Context, _ string, kind vo.DerivativeKind, pct int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, progressRecord{kind: kind, pct: pct})
	return nil
}

type memMetadata struct {
	mu      sync.Mutex
	updates map[string]gateway.MetadataUpdate
	err     error
}

func newMemMetadata() *memMetadata {
	return &memMetadata{updates: make(map[string]gateway.MetadataUpdate)}
}

func (m *memMetadata) UpdateDerivatives(_ context.Context, id string, u gateway.MetadataUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[id] = u
	return nil
}

func testJobs(cfg *config.Config, enc port.Encoder, pub ArtifactPublisher, progress port.ProgressSink) []DerivativeJob {
	log := logger.NewNop()
	return []DerivativeJob{
		NewThumbnailJob(log, enc, pub, progress, cfg),
		NewPreviewJob(log, enc, pub, progress, cfg),
		NewAdaptivePackageJob(log, enc, pub, progress, cfg),
	}
}
