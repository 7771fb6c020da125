package grading_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// A and B correct, C wrong.
var multi = quiz.Question{ID: 2, Text: "Q2", Answers: []quiz.Answer{
	{ID: 21, QuestionID: 2, Text: "A", IsCorrect: true},
	{ID: 22, QuestionID: 2, Text: "B", IsCorrect: true},
	{ID: 23, QuestionID: 2, Text: "C"},
}}

var single = quiz.Question{ID: 1, Text: "Q1", Answers: []quiz.Answer{
	{ID: 11, QuestionID: 1, Text: "X", IsCorrect: true},
	{ID: 12, QuestionID: 1, Text: "Y"},
}}

func answer(qid int64, ids ...int64) quiz.AttemptAnswer {
	return quiz.AttemptAnswer{QuestionID: qid, Selected: ids}
}

func TestIsCorrect_ExactSetMatch(t *testing.T) {
	cases := []struct {
		name string
		sel  []int64
		want bool
	}{
		{"exact", []int64{21, 22}, true},
		{"reordered", []int64{22, 21}, true},
		{"duplicates", []int64{21, 22, 21}, true},
		{"subset", []int64{21}, false},
		{"superset", []int64{21, 22, 23}, false},
		{"empty", nil, false},
		{"distractor only", []int64{23}, false},
		{"foreign ids ignored", []int64{21, 22, 11}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := grading.IsCorrect(multi, answer(2, tc.sel...)); got != tc.want {
				t.Fatalf("IsCorrect(%v) = %v, want %v", tc.sel, got, tc.want)
			}
		})
	}
}

func TestIsCorrect_NoCorrectOption(t *testing.T) {
	q := quiz.Question{ID: 3, Answers: []quiz.Answer{{ID: 31}, {ID: 32}}}
	if !grading.IsCorrect(q, answer(3)) {
		t.Fatal("empty selection should match an empty correct set")
	}
	if grading.IsCorrect(q, answer(3, 31)) {
		t.Fatal("any selection is wrong when nothing is correct")
	}
}

func TestHasMultipleCorrectOptions(t *testing.T) {
	if grading.HasMultipleCorrectOptions(single) {
		t.Fatal("single-answer question reported as multi")
	}
	if !grading.HasMultipleCorrectOptions(multi) {
		t.Fatal("multi-answer question reported as single")
	}
}

func TestTallyAnswers(t *testing.T) {
	empty := quiz.Question{ID: 9, Text: "no options"}
	qs := map[int64]quiz.Question{1: single, 2: multi, 9: empty}

	tally, err := grading.TallyAnswers([]quiz.AttemptAnswer{
		answer(1, 11),
		answer(2, 21),
		answer(9),
	}, qs)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Correct != 1 || tally.Incorrect != 1 || tally.Answered() != 2 {
		t.Fatalf("tally = %+v", tally)
	}
	if got := tally.Percentage(); got != 50 {
		t.Fatalf("percentage = %v, want 50", got)
	}

	if _, err := grading.TallyAnswers([]quiz.AttemptAnswer{answer(404)}, qs); err == nil {
		t.Fatal("expected error for unknown question")
	}
}

func TestPercentage_NothingAnswered(t *testing.T) {
	if got := (grading.Tally{}).Percentage(); got != 0 {
		t.Fatalf("percentage = %v, want 0", got)
	}
}

type fakeSource map[int64]quiz.Question

func (f fakeSource) GetQuestion(_ context.Context, id int64) (quiz.Question, error) {
	q, ok := f[id]
	if !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return q, nil
}

func TestScorer(t *testing.T) {
	ctx := context.Background()
	s := grading.NewScorer(fakeSource{1: single, 2: multi})

	a := quiz.Attempt{ID: 7, QuestionOrder: []int64{1, 2}, Answers: []quiz.AttemptAnswer{
		answer(1, 11),
		answer(2, 21, 22),
	}}
	tally, err := s.Tally(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Correct != 2 || tally.Incorrect != 0 {
		t.Fatalf("tally = %+v", tally)
	}
	pct, err := s.Percentage(ctx, a)
	if err != nil || pct != 100 {
		t.Fatalf("percentage = %v err=%v", pct, err)
	}

	ok, err := s.IsCorrect(ctx, answer(2, 21))
	if err != nil || ok {
		t.Fatalf("IsCorrect = %v err=%v", ok, err)
	}

	missing := quiz.Attempt{ID: 8, QuestionOrder: []int64{404}, Answers: []quiz.AttemptAnswer{answer(404)}}
	if _, err := s.Tally(ctx, missing); !errors.Is(err, quiz.ErrQuestionNotFound) {
		t.Fatalf("err = %v, want ErrQuestionNotFound", err)
	}
}

func TestScorer_AnswerOutsideOrderIsRejected(t *testing.T) {
	s := grading.NewScorer(fakeSource{1: single, 2: multi})
	a := quiz.Attempt{ID: 9, QuestionOrder: []int64{1}, Answers: []quiz.AttemptAnswer{
		answer(1, 11),
		answer(2, 21, 22),
	}}
	if _, err := s.Tally(context.Background(), a); !errors.Is(err, quiz.ErrQuestionNotInAttempt) {
		t.Fatalf("err = %v, want ErrQuestionNotInAttempt", err)
	}
	if _, err := s.Percentage(context.Background(), a); !errors.Is(err, quiz.ErrQuestionNotInAttempt) {
		t.Fatalf("percentage err = %v, want ErrQuestionNotInAttempt", err)
	}
}

// End to end through the engine: one single-answer and one multi-answer
// question answered correctly score 2/0.
func TestScorer_EngineScenario(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	for _, q := range []quiz.Question{
		{Text: "Q1", Answers: []quiz.Answer{{Text: "X", IsCorrect: true}, {Text: "Y"}}},
		{Text: "Q2", Answers: []quiz.Answer{{Text: "A", IsCorrect: true}, {Text: "B", IsCorrect: true}, {Text: "C"}}},
	} {
		if _, _, err := store.ImportQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	e := quiz.NewEngine(store)
	s := grading.NewScorer(store)

	a, _, err := e.GetOrCreateAttempt(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]map[string]bool{"Q1": {"X": true}, "Q2": {"A": true, "B": true}}
	for {
		q, ok, err := e.NextUnanswered(ctx, a)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		p := e.Present(q)
		var positions []int
		for i, text := range p.Texts {
			if want[q.Text][text] {
				positions = append(positions, i)
			}
		}
		aa, _, err := e.RecordSubmission(ctx, a, q, positions, p)
		if err != nil {
			t.Fatal(err)
		}
		if ok, _ := s.IsCorrect(ctx, aa); !ok {
			t.Fatalf("%s scored incorrect: %v", q.Text, aa.Selected)
		}
		if a, err = store.GetAttempt(ctx, a.ID); err != nil {
			t.Fatal(err)
		}
	}
	tally, err := s.Tally(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Correct != 2 || tally.Incorrect != 0 || tally.Percentage() != 100 {
		t.Fatalf("tally = %+v (%v%%)", tally, tally.Percentage())
	}
}
