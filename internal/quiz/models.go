package quiz

import "time"

type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Question is immutable after import except for Explanation, which is filled
// in lazily the first time someone asks for it.
type Question struct {
	ID          int64    `json:"id"`
	Text        string   `json:"text"`
	Image       string   `json:"image,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Answers     []Answer `json:"answers"`
}

// CorrectAnswerIDs returns the ids of the answers flagged correct.
func (q Question) CorrectAnswerIDs() []int64 {
	out := make([]int64, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsCorrect {
			out = append(out, a.ID)
		}
	}
	return out
}

func (q Question) CorrectTexts() []string {
	out := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsCorrect {
			out = append(out, a.Text)
		}
	}
	return out
}

func (q Question) DistractorTexts() []string {
	out := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		if !a.IsCorrect {
			out = append(out, a.Text)
		}
	}
	return out
}

// TextsFor resolves answer ids to their texts in the question's own order.
// Ids that belong to other questions are skipped.
func (q Question) TextsFor(ids []int64) []string {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, a := range q.Answers {
		if _, ok := want[a.ID]; ok {
			out = append(out, a.Text)
		}
	}
	return out
}

type Attempt struct {
	ID            int64           `json:"id"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	QuestionOrder []int64         `json:"question_order"` // fixed at creation
	Answers       []AttemptAnswer `json:"answers"`
}

// AnswerFor returns the recorded answer for questionID, if any.
func (a Attempt) AnswerFor(questionID int64) (AttemptAnswer, bool) {
	for _, aa := range a.Answers {
		if aa.QuestionID == questionID {
			return aa, true
		}
	}
	return AttemptAnswer{}, false
}

// Contains reports whether questionID is part of the attempt's question order.
func (a Attempt) Contains(questionID int64) bool {
	for _, id := range a.QuestionOrder {
		if id == questionID {
			return true
		}
	}
	return false
}

// AttemptAnswer is append-only. Correctness is not stored; see grading.IsCorrect.
type AttemptAnswer struct {
	ID          int64     `json:"id"`
	AttemptID   int64     `json:"attempt_id"`
	QuestionID  int64     `json:"question_id"`
	Selected    []int64   `json:"selected_answers"` // order-insignificant
	SubmittedAt time.Time `json:"submitted_at"`
}
