package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionNotInAttempt means a caller tried to answer a question that is
	// not part of the attempt's fixed order.
	ErrQuestionNotInAttempt = errors.New("question is not part of the attempt")
	// ErrStalePresentation means the presentation mapping was produced for a
	// different question than the one being answered.
	ErrStalePresentation = errors.New("presentation does not match question")
)

// Store is the persistence boundary. Implementations must make
// CreateAttempt and InsertAnswerIfAbsent atomic.
type Store interface {
	ListQuestionIDs(ctx context.Context) ([]int64, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	// ImportQuestion inserts q with its answers unless a question with the
	// same text exists. It reports whether a row was written.
	ImportQuestion(ctx context.Context, q Question) (Question, bool, error)
	SaveExplanation(ctx context.Context, questionID int64, text string) error

	// CreateAttempt snapshots the current question ids, orders them with
	// shuffle and persists a new attempt, all in one transaction.
	CreateAttempt(ctx context.Context, shuffle func([]int64), startedAt time.Time) (Attempt, error)
	GetAttempt(ctx context.Context, id int64) (Attempt, error)
	ListAttempts(ctx context.Context, limit int) ([]Attempt, error)
	// InsertAnswerIfAbsent writes aa unless an answer already exists for
	// (aa.AttemptID, aa.QuestionID). It returns the stored row either way and
	// reports whether it was created by this call.
	InsertAnswerIfAbsent(ctx context.Context, aa AttemptAnswer) (AttemptAnswer, bool, error)
	// MarkCompleted sets completed_at only if it is still unset.
	MarkCompleted(ctx context.Context, attemptID int64, at time.Time) error
}
