package explain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Request is everything the backend gets to see about a question.
type Request struct {
	QuestionText string
	Correct      []string
	Distractors  []string
	Image        string // optional reference, passed through as-is
}

// Generator produces a markdown explanation. Errors are opaque to the cache.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// ExplanationSaver persists a generated explanation on its question.
type ExplanationSaver interface {
	SaveExplanation(ctx context.Context, questionID int64, text string) error
}

// Cache serves question explanations, generating and persisting each one the
// first time it is requested. No lock is held across the backend call, so
// concurrent first requests may each call the backend; the last save wins.
type Cache struct {
	store ExplanationSaver
	gen   Generator
	log   *zap.Logger
}

func NewCache(store ExplanationSaver, gen Generator, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, gen: gen, log: log}
}

// ExplanationFor returns q.Explanation when set. Otherwise it asks the
// backend exactly once and stores the result before returning it. A backend
// failure is returned as-is and nothing is cached.
func (c *Cache) ExplanationFor(ctx context.Context, q quiz.Question, correct, distractors []string) (string, error) {
	if q.Explanation != "" {
		return q.Explanation, nil
	}
	text, err := c.gen.Generate(ctx, Request{
		QuestionText: q.Text,
		Correct:      correct,
		Distractors:  distractors,
		Image:        q.Image,
	})
	if err != nil {
		c.log.Warn("explanation backend failed", zap.Int64("question_id", q.ID), zap.Error(err))
		return "", fmt.Errorf("explain: generate: %w", err)
	}
	if err := c.store.SaveExplanation(ctx, q.ID, text); err != nil {
		return "", fmt.Errorf("explain: save: %w", err)
	}
	c.log.Info("explanation cached", zap.Int64("question_id", q.ID), zap.Int("bytes", len(text)))
	return text, nil
}
