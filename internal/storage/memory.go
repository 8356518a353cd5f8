package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps objects in memory. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	seq     int
	cdnHost string
}

type memoryObject struct {
	data        []byte
	contentType string
	seq         int
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore(cdnHost string) *MemoryStore {
	if cdnHost == "" {
		cdnHost = "memory.invalid"
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		cdnHost: cdnHost,
	}
}

// Upload stores the object unless it already exists and forced is false.
func (s *MemoryStore) Upload(_ context.Context, name, contentType string, data []byte, forced bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[name]; !exists || forced {
		s.seq++
		s.objects[name] = memoryObject{
			data:        append([]byte(nil), data...),
			contentType: contentType,
			seq:         s.seq,
		}
	}
	return fmt.Sprintf("https://%s/%s", s.cdnHost, name), nil
}

// LatestMatching returns the most recently written object under prefix.
func (s *MemoryStore) LatestMatching(_ context.Context, prefix string) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bestName := ""
	bestSeq := -1
	for name, obj := range s.objects {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if obj.seq > bestSeq {
			bestName, bestSeq = name, obj.seq
		}
	}
	if bestName == "" {
		return "", nil, nil
	}
	return bestName, append([]byte(nil), s.objects[bestName].data...), nil
}

// Get returns a stored object's bytes, primarily for test assertions.
func (s *MemoryStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Len reports how many objects are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
