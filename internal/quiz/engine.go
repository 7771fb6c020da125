package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Engine drives an attempt through the question bank: it creates attempts,
// hands out the next unanswered question, shuffles its options and records
// answers exactly once.
type Engine struct {
	store   Store
	shuffle ShuffleFunc
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Engine)

func WithShuffle(f ShuffleFunc) Option      { return func(e *Engine) { e.shuffle = f } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithLogger(l *zap.Logger) Option       { return func(e *Engine) { e.log = l } }

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		shuffle: rand.Shuffle,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Store() Store { return e.store }

// GetOrCreateAttempt returns the attempt named by attemptID. When the id is
// zero or no longer resolves, a new attempt is created over the current bank
// and created is true; the caller must remember the new attempt's id.
func (e *Engine) GetOrCreateAttempt(ctx context.Context, attemptID int64) (Attempt, bool, error) {
	if attemptID != 0 {
		a, err := e.store.GetAttempt(ctx, attemptID)
		if err == nil {
			return a, false, nil
		}
		if !errors.Is(err, ErrAttemptNotFound) {
			return Attempt{}, false, err
		}
		e.log.Info("attempt reference no longer resolves, starting over", zap.Int64("attempt_id", attemptID))
	}

	a, err := e.store.CreateAttempt(ctx, func(ids []int64) {
		e.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}, e.now())
	if err != nil {
		return Attempt{}, false, err
	}
	e.log.Info("attempt created", zap.Int64("attempt_id", a.ID), zap.Int("questions", len(a.QuestionOrder)))
	return a, true, nil
}

// IsComplete reports whether every question in the order has an answer.
func IsComplete(a Attempt) bool {
	_, ok := firstUnanswered(a)
	return !ok
}

// MarkCompleteIfFinished stamps the completion time the first time the attempt
// is complete. Later calls leave the stored timestamp untouched.
func (e *Engine) MarkCompleteIfFinished(ctx context.Context, a Attempt) (Attempt, error) {
	if !IsComplete(a) || a.CompletedAt != nil {
		return a, nil
	}
	if err := e.store.MarkCompleted(ctx, a.ID, e.now()); err != nil {
		return Attempt{}, err
	}
	return e.store.GetAttempt(ctx, a.ID)
}

// NextUnanswered resolves the first question in the attempt's order without a
// recorded answer. ok is false once the attempt is complete.
func (e *Engine) NextUnanswered(ctx context.Context, a Attempt) (q Question, ok bool, err error) {
	id, ok := firstUnanswered(a)
	if !ok {
		return Question{}, false, nil
	}
	q, err = e.store.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, false, fmt.Errorf("quiz: attempt %d: question %d: %w", a.ID, id, err)
	}
	return q, true, nil
}

func firstUnanswered(a Attempt) (int64, bool) {
	answered := make(map[int64]struct{}, len(a.Answers))
	for _, aa := range a.Answers {
		answered[aa.QuestionID] = struct{}{}
	}
	for _, id := range a.QuestionOrder {
		if _, done := answered[id]; !done {
			return id, true
		}
	}
	return 0, false
}

// Present shuffles q's options for display.
func (e *Engine) Present(q Question) Presentation {
	return present(q, e.shuffle)
}

// RecordSubmission translates display positions through p and stores the
// answer for (a, q) unless one already exists, in which case the existing
// answer is returned unchanged and created is false. Positions outside p are
// dropped.
func (e *Engine) RecordSubmission(ctx context.Context, a Attempt, q Question, positions []int, p Presentation) (aa AttemptAnswer, created bool, err error) {
	if !a.Contains(q.ID) {
		return AttemptAnswer{}, false, fmt.Errorf("quiz: attempt %d, question %d: %w", a.ID, q.ID, ErrQuestionNotInAttempt)
	}
	if existing, ok := a.AnswerFor(q.ID); ok {
		return existing, false, nil
	}
	if p.QuestionID != q.ID {
		return AttemptAnswer{}, false, ErrStalePresentation
	}

	seen := make(map[int]struct{}, len(positions))
	selected := make([]int64, 0, len(positions))
	for _, pos := range positions {
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		id, ok := p.AnswerAt(pos)
		if !ok {
			e.log.Debug("dropping out-of-range position", zap.Int64("question_id", q.ID), zap.Int("position", pos))
			continue
		}
		selected = append(selected, id)
	}

	aa, created, err = e.store.InsertAnswerIfAbsent(ctx, AttemptAnswer{
		AttemptID:   a.ID,
		QuestionID:  q.ID,
		Selected:    selected,
		SubmittedAt: e.now(),
	})
	if err != nil {
		return AttemptAnswer{}, false, err
	}
	if !created {
		e.log.Info("duplicate submission ignored", zap.Int64("attempt_id", a.ID), zap.Int64("question_id", q.ID))
	}
	return aa, created, nil
}
