package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// MappingStore keeps presentation mappings keyed by (session, question). It
// is short-lived state, separate from the durable store; entries expire.
type MappingStore interface {
	Put(ctx context.Context, sessionID string, p quiz.Presentation) error
	Get(ctx context.Context, sessionID string, questionID int64) (quiz.Presentation, bool, error)
	Delete(ctx context.Context, sessionID string, questionID int64) error
}

func mappingKey(sessionID string, questionID int64) string {
	return fmt.Sprintf("quiz:presentation:%s:%d", sessionID, questionID)
}

type memoryEntry struct {
	p       quiz.Presentation
	expires time.Time
}

type MemoryMappingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryMappingStore(ttl time.Duration) *MemoryMappingStore {
	return &MemoryMappingStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (m *MemoryMappingStore) Put(_ context.Context, sessionID string, p quiz.Presentation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	var exp time.Time
	if m.ttl > 0 {
		exp = m.now().Add(m.ttl)
	}
	m.entries[mappingKey(sessionID, p.QuestionID)] = memoryEntry{p: p, expires: exp}
	return nil
}

func (m *MemoryMappingStore) Get(_ context.Context, sessionID string, questionID int64) (quiz.Presentation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := mappingKey(sessionID, questionID)
	e, ok := m.entries[k]
	if !ok {
		return quiz.Presentation{}, false, nil
	}
	if m.expired(e) {
		delete(m.entries, k)
		return quiz.Presentation{}, false, nil
	}
	return e.p, true, nil
}

func (m *MemoryMappingStore) Delete(_ context.Context, sessionID string, questionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, mappingKey(sessionID, questionID))
	return nil
}

func (m *MemoryMappingStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// sweep drops expired entries; caller holds mu.
func (m *MemoryMappingStore) sweep() {
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
}
