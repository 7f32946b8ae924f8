package app

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
)

type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	public      map[string]bool
	downloads   int
	uploads     int
	downloadErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, public: map[string]bool{}}
}

func (s *memStorage) Download(_ context.Context, bucket, key, localPath string) error {
	s.mu.Lock()
	s.downloads++
	data, ok := s.objects[bucket+"/"+key]
	s.mu.Unlock()
	if s.downloadErr != nil {
		return s.downloadErr
	}
	if !ok {
		return errors.New("no such key")
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *memStorage) Upload(_ context.Context, obj gateway.UploadObject) error {
	data, err := os.ReadFile(obj.LocalPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.objects[obj.Bucket+"/"+obj.Key] = data
	return nil
}

func (s *memStorage) SetPublic(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public[bucket+"/"+key] = true
	return nil
}

func (s *memStorage) List(_ context.Context, bucket, prefix string) ([]gateway.ObjectInfo, error) {
	var out []gateway.ObjectInfo
	for _, k := range s.keys(bucket) {
		if strings.HasPrefix(k, prefix) {
			out = append(out, gateway.ObjectInfo{Key: k})
		}
	}
	return out, nil
}

func (s *memStorage) Remove(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *memStorage) Stat(context.Context, string, string) (gateway.ObjectInfo, error) {
	return gateway.ObjectInfo{}, errors.New("not implemented")
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

// fakeEncoder writes placeholder outputs; fail injects per-kind errors.
type fakeEncoder struct {
	mu    sync.Mutex
	calls int
	fail  map[vo.DerivativeKind]error
}

func (e *fakeEncoder) Encode(_ context.Context, req port.EncodeRequest) ([]string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if err := e.fail[req.Options.Kind]; err != nil {
		return nil, err
	}
	if req.Options.HLS == nil {
		return []string{req.OutputPath}, os.WriteFile(req.OutputPath, []byte("x"), 0o644)
	}
	dir := filepath.Dir(req.OutputPath)
	outputs := []string{req.OutputPath, filepath.Join(dir, req.Options.HLS.MasterName), filepath.Join(dir, "segment_000.ts")}
	for _, p := range outputs {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func (e *fakeEncoder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type memMetadata struct {
	mu      sync.Mutex
	updates map[string]gateway.MetadataUpdate
	err     error
}

func (m *memMetadata) UpdateDerivatives(_ context.Context, id string, u gateway.MetadataUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates == nil {
		m.updates = map[string]gateway.MetadataUpdate{}
	}
	m.updates[id] = u
	return nil
}

type memNotifier struct {
	events []gateway.CompletionEvent
	err    error
}

func (n *memNotifier) NotifyCompleted(_ context.Context, ev gateway.CompletionEvent) error {
	n.events = append(n.events, ev)
	return n.err
}
