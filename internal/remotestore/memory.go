package remotestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests. Mutations fan snapshots
// out to subscribers synchronously.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subscribers map[string]map[int]SnapshotFunc
	nextSub     int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		subscribers: make(map[string]map[int]SnapshotFunc),
	}
}

func (s *MemoryStore) ListAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(collection), nil
}

func (s *MemoryStore) listLocked(collection string) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Data: mergeData(nil, data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (s *MemoryStore) GetOne(_ context.Context, collection, id string) (Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, false, nil
	}
	return Document{ID: id, Data: mergeData(nil, data)}, true, nil
}

func (s *MemoryStore) AddOne(_ context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	s.put(collection, id, data, false)
	return id, nil
}

func (s *MemoryStore) SetOne(_ context.Context, collection, id string, data map[string]any, merge bool) error {
	s.put(collection, id, data, merge)
	return nil
}

func (s *MemoryStore) put(collection, id string, data map[string]any, merge bool) {
	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	if existing, ok := s.collections[collection][id]; ok && merge {
		data = mergeData(existing, data)
	} else {
		data = mergeData(nil, data)
	}
	s.collections[collection][id] = data
	s.mu.Unlock()
	s.broadcast(collection)
}

func (s *MemoryStore) DeleteOne(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.collections[collection], id)
	s.mu.Unlock()
	s.broadcast(collection)
	return nil
}

func (s *MemoryStore) broadcast(collection string) {
	s.mu.Lock()
	docs := s.listLocked(collection)
	fns := make([]SnapshotFunc, 0, len(s.subscribers[collection]))
	for _, fn := range s.subscribers[collection] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(docs)
	}
}

func (s *MemoryStore) Subscribe(_ context.Context, collection string, fn SnapshotFunc) (Unsubscribe, error) {
	s.mu.Lock()
	if s.subscribers[collection] == nil {
		s.subscribers[collection] = make(map[int]SnapshotFunc)
	}
	key := s.nextSub
	s.nextSub++
	s.subscribers[collection][key] = fn
	docs := s.listLocked(collection)
	s.mu.Unlock()

	fn(docs)
	return func() {
		s.mu.Lock()
		delete(s.subscribers[collection], key)
		s.mu.Unlock()
	}, nil
}

func (s *MemoryStore) ServerTimestamp(_ context.Context) (time.Time, error) {
	return time.Now(), nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
