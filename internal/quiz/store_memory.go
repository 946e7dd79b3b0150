package quiz

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore backs the Catalog and AttemptStore interfaces with maps. It
// serves tests and local/dev runs; production uses SQLStore.
type MemoryStore struct {
	mu         sync.RWMutex
	categories []Category
	tests      map[string]Test
	testOrder  []string
	questions  map[string][]Question // testID -> authoring order
	attempts   []Attempt             // append order
	sessions   map[string]int64      // testID|userID -> startedAt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:     map[string]Test{},
		questions: map[string][]Question{},
		sessions:  map[string]int64{},
	}
}

// PutCategory seeds a category.
func (m *MemoryStore) PutCategory(c Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
}

// PutTest seeds a test and its questions in authoring order.
func (m *MemoryStore) PutTest(t Test, qs []Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[t.ID]; !ok {
		m.testOrder = append(m.testOrder, t.ID)
	}
	t.QuestionIDs = t.QuestionIDs[:0]
	for _, q := range qs {
		t.QuestionIDs = append(t.QuestionIDs, q.ID)
	}
	m.tests[t.ID] = t
	m.questions[t.ID] = append([]Question(nil), qs...)
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Category(nil), m.categories...), nil
}

func (m *MemoryStore) ListTests(ctx context.Context, categoryID string) ([]TestInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestInfo{}
	for _, id := range m.testOrder {
		t := m.tests[id]
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		out = append(out, testInfo(t, len(m.questions[id])))
	}
	return out, nil
}

func (m *MemoryStore) GetTest(ctx context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrTestNotFound
	}
	return t, nil
}

func (m *MemoryStore) GetQuestions(ctx context.Context, testID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tests[testID]; !ok {
		return nil, ErrTestNotFound
	}
	return append([]Question(nil), m.questions[testID]...), nil
}

func (m *MemoryStore) PutAttempt(ctx context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *MemoryStore) LatestAttempt(ctx context.Context, userID, testID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := -1
	for i, a := range m.attempts {
		if a.UserID != userID || a.TestID != testID {
			continue
		}
		if best < 0 || a.CompletedAt >= m.attempts[best].CompletedAt {
			best = i
		}
	}
	if best < 0 {
		return Attempt{}, ErrAttemptNotFound
	}
	return m.attempts[best], nil
}

func (m *MemoryStore) ListAttempts(ctx context.Context, userID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	// newest first; ties keep later insertion first
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt > out[j].CompletedAt })
	return out, nil
}

func (m *MemoryStore) StartSession(ctx context.Context, testID, userID string, startedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[testID+"|"+userID] = startedAt
	return nil
}

func (m *MemoryStore) SessionStart(ctx context.Context, testID, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.sessions[testID+"|"+userID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return ts, nil
}

func (m *MemoryStore) PurgeSessions(ctx context.Context, olderThan int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, ts := range m.sessions {
		if ts < olderThan {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}
