package grading

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// IsCorrect is exact-match scoring: the de-duplicated selection must equal the
// set of answers flagged correct on q. Selected ids that do not belong to q
// are ignored. There is no partial credit.
func IsCorrect(q quiz.Question, aa quiz.AttemptAnswer) bool {
	own := make(map[int64]struct{}, len(q.Answers))
	for _, a := range q.Answers {
		own[a.ID] = struct{}{}
	}
	selected := make(map[int64]struct{}, len(aa.Selected))
	for _, id := range aa.Selected {
		if _, ok := own[id]; ok {
			selected[id] = struct{}{}
		}
	}
	return setEqual(selected, toSet(q.CorrectAnswerIDs()))
}

// HasMultipleCorrectOptions decides between single- and multi-select input.
func HasMultipleCorrectOptions(q quiz.Question) bool {
	n := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n > 1
}

// Tally counts answered questions only; pending questions are in neither count.
type Tally struct {
	Correct   int `json:"correct_count"`
	Incorrect int `json:"incorrect_count"`
}

func (t Tally) Answered() int { return t.Correct + t.Incorrect }

// Percentage is correct over answered, 0 when nothing is answered yet.
func (t Tally) Percentage() float64 {
	if t.Answered() == 0 {
		return 0
	}
	return 100 * float64(t.Correct) / float64(t.Answered())
}

// TallyAnswers scores answers against questions keyed by id. Questions
// without any options cannot be answered meaningfully and are left out.
func TallyAnswers(answers []quiz.AttemptAnswer, questions map[int64]quiz.Question) (Tally, error) {
	var t Tally
	for _, aa := range answers {
		q, ok := questions[aa.QuestionID]
		if !ok {
			return Tally{}, fmt.Errorf("grading: answer %d references unknown question %d", aa.ID, aa.QuestionID)
		}
		if len(q.Answers) == 0 {
			continue
		}
		if IsCorrect(q, aa) {
			t.Correct++
		} else {
			t.Incorrect++
		}
	}
	return t, nil
}

// QuestionSource is the read side of quiz.Store used for scoring.
type QuestionSource interface {
	GetQuestion(ctx context.Context, id int64) (quiz.Question, error)
}

// Scorer recomputes attempt statistics from stored rows on every call.
type Scorer struct {
	questions QuestionSource
}

func NewScorer(src QuestionSource) *Scorer { return &Scorer{questions: src} }

// Tally fails with quiz.ErrQuestionNotInAttempt when an answer belongs to a
// question outside the attempt's order.
func (s *Scorer) Tally(ctx context.Context, a quiz.Attempt) (Tally, error) {
	qs := make(map[int64]quiz.Question, len(a.Answers))
	for _, aa := range a.Answers {
		if !a.Contains(aa.QuestionID) {
			return Tally{}, fmt.Errorf("grading: attempt %d, answer %d, question %d: %w",
				a.ID, aa.ID, aa.QuestionID, quiz.ErrQuestionNotInAttempt)
		}
		if _, ok := qs[aa.QuestionID]; ok {
			continue
		}
		q, err := s.questions.GetQuestion(ctx, aa.QuestionID)
		if err != nil {
			return Tally{}, fmt.Errorf("grading: attempt %d: %w", a.ID, err)
		}
		qs[q.ID] = q
	}
	return TallyAnswers(a.Answers, qs)
}

func (s *Scorer) Percentage(ctx context.Context, a quiz.Attempt) (float64, error) {
	t, err := s.Tally(ctx, a)
	if err != nil {
		return 0, err
	}
	return t.Percentage(), nil
}

// IsCorrect loads the answer's question and scores it.
func (s *Scorer) IsCorrect(ctx context.Context, aa quiz.AttemptAnswer) (bool, error) {
	q, err := s.questions.GetQuestion(ctx, aa.QuestionID)
	if err != nil {
		return false, err
	}
	return IsCorrect(q, aa), nil
}

// helpers

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
