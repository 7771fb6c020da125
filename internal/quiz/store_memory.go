package quiz

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[int64]Question
	attempts  map[int64]Attempt
	seq       struct{ question, answer, attempt, attemptAnswer int64 }
}

// NewInMemoryStore returns a Store that keeps everything in process memory.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[int64]Question{},
		attempts:  map[int64]Attempt{},
	}
}

func (m *memoryStore) ListQuestionIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.questionIDs(), nil
}

func (m *memoryStore) questionIDs() []int64 {
	ids := make([]int64, 0, len(m.questions))
	for id := range m.questions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memoryStore) GetQuestion(_ context.Context, id int64) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (m *memoryStore) ImportQuestion(_ context.Context, q Question) (Question, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.questionIDs() {
		if existing := m.questions[id]; existing.Text == q.Text {
			return cloneQuestion(existing), false, nil
		}
	}
	m.seq.question++
	q = cloneQuestion(q)
	q.ID = m.seq.question
	for i := range q.Answers {
		m.seq.answer++
		q.Answers[i].ID = m.seq.answer
		q.Answers[i].QuestionID = q.ID
	}
	m.questions[q.ID] = q
	return cloneQuestion(q), true, nil
}

func (m *memoryStore) SaveExplanation(_ context.Context, questionID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return ErrQuestionNotFound
	}
	q.Explanation = text
	m.questions[questionID] = q
	return nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, shuffle func([]int64), startedAt time.Time) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order := m.questionIDs()
	shuffle(order)
	m.seq.attempt++
	a := Attempt{ID: m.seq.attempt, StartedAt: startedAt, QuestionOrder: order}
	m.attempts[a.ID] = a
	return cloneAttempt(a), nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id int64) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) ListAttempts(_ context.Context, limit int) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		out = append(out, cloneAttempt(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) InsertAnswerIfAbsent(_ context.Context, aa AttemptAnswer) (AttemptAnswer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[aa.AttemptID]
	if !ok {
		return AttemptAnswer{}, false, ErrAttemptNotFound
	}
	if existing, ok := a.AnswerFor(aa.QuestionID); ok {
		return cloneAnswer(existing), false, nil
	}
	m.seq.attemptAnswer++
	aa = cloneAnswer(aa)
	aa.ID = m.seq.attemptAnswer
	a.Answers = append(a.Answers, aa)
	m.attempts[a.ID] = a
	return cloneAnswer(aa), true, nil
}

func (m *memoryStore) MarkCompleted(_ context.Context, attemptID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	if a.CompletedAt == nil {
		t := at
		a.CompletedAt = &t
		m.attempts[attemptID] = a
	}
	return nil
}

func cloneQuestion(q Question) Question {
	q.Answers = append([]Answer(nil), q.Answers...)
	return q
}

func cloneAnswer(aa AttemptAnswer) AttemptAnswer {
	aa.Selected = append([]int64{}, aa.Selected...)
	return aa
}

func cloneAttempt(a Attempt) Attempt {
	a.QuestionOrder = append([]int64{}, a.QuestionOrder...)
	answers := make([]AttemptAnswer, len(a.Answers))
	for i, aa := range a.Answers {
		answers[i] = cloneAnswer(aa)
	}
	a.Answers = answers
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		a.CompletedAt = &t
	}
	return a
}
