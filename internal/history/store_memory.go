package history

import (
	"context"
	"sort"
	"sync"
	"time"

	id "doctrail/pkg/domain"
)

// InMemoryStore keeps the action log in a slice per document. It implements
// Snapshot/Restore so the in-memory transaction runner can roll back a
// recorded action together with the document change it described.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[id.DocumentID][]Entry
	kinds   []KindInfo
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		nextID:  1,
		entries: make(map[id.DocumentID][]Entry),
		now:     time.Now,
	}
	s.kinds = append(s.kinds, LifecycleKinds()...)
	return s
}

// SetClock overrides the timestamp source. Test setup only.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) AppendPair(_ context.Context, docID id.DocumentID, action *Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action.ID = s.nextID
	s.nextID++
	if action.CreatedAt.IsZero() {
		action.CreatedAt = s.now()
	}
	s.entries[docID] = append(s.entries[docID], Entry{Action: *action, DocumentID: docID})
	return nil
}

func (s *InMemoryStore) ListByDocument(_ context.Context, docID id.DocumentID, page PageRequest) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.entries[docID], nil, page), nil
}

func (s *InMemoryStore) ListByDocumentAndKind(_ context.Context, docID id.DocumentID, kind Kind, page PageRequest) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match := func(e Entry) bool { return e.Kind == kind }
	return paginate(s.entries[docID], match, page), nil
}

func (s *InMemoryStore) RegisterKind(_ context.Context, info KindInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.kinds {
		if existing.Name == info.Name {
			return nil
		}
	}
	s.kinds = append(s.kinds, info)
	return nil
}

func (s *InMemoryStore) Kinds(_ context.Context) ([]KindInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]KindInfo(nil), s.kinds...), nil
}

// paginate sorts by (created_at, id) in the requested direction and applies
// offset and size. The id tie-break keeps pagination cursors stable when two
// actions land on the same millisecond.
func paginate(entries []Entry, match func(Entry) bool, page PageRequest) []Entry {
	page = page.normalize()

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if match == nil || match(e) {
			filtered = append(filtered, e)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if page.Direction == Ascending {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if page.Offset >= len(filtered) {
		return []Entry{}
	}
	end := page.Offset + page.Size
	if end > len(filtered) {
		end = len(filtered)
	}
	return append([]Entry{}, filtered[page.Offset:end]...)
}

type memorySnapshot struct {
	nextID  int64
	entries map[id.DocumentID][]Entry
}

// Snapshot returns a deep copy of the log state. Kinds are excluded: the
// vocabulary is registration data, not transactional state.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{nextID: s.nextID, entries: make(map[id.DocumentID][]Entry, len(s.entries))}
	for k, v := range s.entries {
		snap.entries[k] = append([]Entry(nil), v...)
	}
	return snap
}

// Restore replaces the log state with a previously taken snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	snap, ok := snapshot.(memorySnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.entries = make(map[id.DocumentID][]Entry, len(snap.entries))
	for k, v := range snap.entries {
		s.entries[k] = append([]Entry(nil), v...)
	}
}
