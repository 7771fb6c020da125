package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type stats struct {
	CorrectCount      int     `json:"correct_count"`
	IncorrectCount    int     `json:"incorrect_count"`
	CorrectPercentage float64 `json:"correct_percentage"`
}

func statsOf(t grading.Tally) stats {
	return stats{CorrectCount: t.Correct, IncorrectCount: t.Incorrect, CorrectPercentage: t.Percentage()}
}

type questionView struct {
	AttemptID       int64    `json:"attempt_id"`
	QuestionID      int64    `json:"question_id"`
	Question        string   `json:"question"`
	Image           string   `json:"image,omitempty"`
	Answers         []string `json:"answers"`
	AnswerIndices   []int    `json:"answer_indices"`
	MultipleAnswers bool     `json:"multiple_answers"`
	Unanswerable    bool     `json:"unanswerable,omitempty"`
	stats
}

type answerView struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type answeredView struct {
	QuestionID      int64        `json:"qid"`
	Question        string       `json:"question"`
	Image           string       `json:"image,omitempty"`
	SelectedAnswers []string     `json:"selected_answers"`
	CorrectAnswers  []string     `json:"correct_answers"`
	AllAnswers      []answerView `json:"all_answers"`
	IsCorrect       bool         `json:"is_correct"`
	Explanation     string       `json:"explanation,omitempty"` // markdown
	stats
}

// GET /api/quiz
func QuizHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, _ := session.FromContext(ctx)

		a, created, err := d.Engine.GetOrCreateAttempt(ctx, s.AttemptID)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "attempt unavailable", err)
			return
		}
		if created {
			s.AttemptID = a.ID
			if d.Metrics != nil {
				d.Metrics.AttemptsCreated.Inc()
			}
		}

		q, ok, err := d.Engine.NextUnanswered(ctx, a)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "question unavailable", err)
			return
		}
		if !ok {
			if _, err := d.Engine.MarkCompleteIfFinished(ctx, a); err != nil {
				d.fail(w, r, http.StatusInternalServerError, "complete attempt", err)
				return
			}
			s.CurrentQuestionID = 0
			if err := d.Sessions.Save(w, s); err != nil {
				d.fail(w, r, http.StatusInternalServerError, "session", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"complete": true, "attempt_id": a.ID, "redirect": "/api/history"})
			return
		}

		tally, err := d.Scorer.Tally(ctx, a)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "score attempt", err)
			return
		}

		p := d.Engine.Present(q)
		if err := d.Mappings.Put(ctx, s.ID, p); err != nil {
			d.fail(w, r, http.StatusInternalServerError, "store presentation", err)
			return
		}
		s.CurrentQuestionID = q.ID
		if err := d.Sessions.Save(w, s); err != nil {
			d.fail(w, r, http.StatusInternalServerError, "session", err)
			return
		}

		indices := make([]int, len(p.Texts))
		for i := range indices {
			indices[i] = i
		}
		writeJSON(w, http.StatusOK, questionView{
			AttemptID:       a.ID,
			QuestionID:      q.ID,
			Question:        q.Text,
			Image:           q.Image,
			Answers:         p.Texts,
			AnswerIndices:   indices,
			MultipleAnswers: grading.HasMultipleCorrectOptions(q),
			Unanswerable:    p.Empty(),
			stats:           statsOf(tally),
		})
	}
}

// POST /api/submit   {"answers": [0, 2]}  or form answer=0&answer=2
func SubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, _ := session.FromContext(ctx)
		if s.AttemptID == 0 || s.CurrentQuestionID == 0 {
			redirect(w, "/api/quiz")
			return
		}
		store := d.Engine.Store()
		a, err := store.GetAttempt(ctx, s.AttemptID)
		if errors.Is(err, quiz.ErrAttemptNotFound) {
			redirect(w, "/api/quiz")
			return
		} else if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "attempt unavailable", err)
			return
		}
		q, err := store.GetQuestion(ctx, s.CurrentQuestionID)
		if errors.Is(err, quiz.ErrQuestionNotFound) {
			redirect(w, "/api/quiz")
			return
		} else if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "question unavailable", err)
			return
		}
		answeredURL := fmt.Sprintf("/api/answered/%d", q.ID)
		if _, done := a.AnswerFor(q.ID); done {
			// back button or double post
			d.countSubmission("duplicate")
			redirect(w, answeredURL)
			return
		}

		p, ok, err := d.Mappings.Get(ctx, s.ID, q.ID)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "load presentation", err)
			return
		}
		if !ok {
			redirect(w, "/api/quiz")
			return
		}

		positions, err := parsePositions(r)
		if errors.Is(err, errUnsupportedMedia) {
			http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
			return
		} else if err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		_, created, err := d.Engine.RecordSubmission(ctx, a, q, positions, p)
		switch {
		case errors.Is(err, quiz.ErrStalePresentation), errors.Is(err, quiz.ErrAttemptNotFound):
			redirect(w, "/api/quiz")
			return
		case err != nil:
			d.fail(w, r, http.StatusInternalServerError, "record submission", err)
			return
		}
		if created {
			d.countSubmission("recorded")
		} else {
			d.countSubmission("duplicate")
		}
		d.dropMapping(r, s.ID, q.ID)

		if a, err = store.GetAttempt(ctx, a.ID); err == nil {
			_, err = d.Engine.MarkCompleteIfFinished(ctx, a)
		}
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "complete attempt", err)
			return
		}
		redirect(w, answeredURL)
	}
}

// dropMapping deletes a consumed presentation. A failure only leaves the
// entry to expire, so it is logged and not returned.
func (d Deps) dropMapping(r *http.Request, sessionID string, questionID int64) {
	if err := d.Mappings.Delete(r.Context(), sessionID, questionID); err != nil {
		d.Log.Warn("delete presentation", zap.String("path", r.URL.Path),
			zap.Int64("question_id", questionID), zap.Error(err))
	}
}

func (d Deps) countSubmission(outcome string) {
	if d.Metrics != nil {
		d.Metrics.Submissions.WithLabelValues(outcome).Inc()
	}
}

// errUnsupportedMedia rejects bodies whose answers cannot be read. Recording
// an empty selection for them would be permanent.
var errUnsupportedMedia = errors.New("unsupported content type")

const maxFormMemory = 1 << 20

// parsePositions collects display positions. Entries that are not integers
// are dropped one by one.
func parsePositions(r *http.Request) ([]int, error) {
	var raw []string
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body struct {
			Answers []json.RawMessage `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		for _, m := range body.Answers {
			var s string
			if err := json.Unmarshal(m, &s); err == nil {
				raw = append(raw, s)
				continue
			}
			raw = append(raw, string(m))
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, err
		}
		raw = r.PostForm["answer"]
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		raw = r.PostForm["answer"]
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedMedia, ct)
	}

	out := make([]int, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// GET /api/answered/{qid}
func AnsweredHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := d.answered(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GET /api/explain/{qid}
func ExplainHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := d.answered(w, r)
		if !ok {
			return
		}
		q, err := d.Engine.Store().GetQuestion(r.Context(), view.QuestionID)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "question unavailable", err)
			return
		}
		text, err := d.Explain.ExplanationFor(r.Context(), q, q.CorrectTexts(), q.DistractorTexts())
		if err != nil {
			d.fail(w, r, http.StatusBadGateway, "explanation unavailable", err)
			return
		}
		view.Explanation = text
		writeJSON(w, http.StatusOK, view)
	}
}

// answered builds the view of an answered question in the current attempt.
// It writes a redirect and returns false when any reference is missing.
func (d Deps) answered(w http.ResponseWriter, r *http.Request) (answeredView, bool) {
	ctx := r.Context()
	s, _ := session.FromContext(ctx)
	qid, err := strconv.ParseInt(chi.URLParam(r, "qid"), 10, 64)
	if err != nil || s.AttemptID == 0 {
		redirect(w, "/api/quiz")
		return answeredView{}, false
	}
	store := d.Engine.Store()
	a, err := store.GetAttempt(ctx, s.AttemptID)
	if err != nil {
		if !errors.Is(err, quiz.ErrAttemptNotFound) {
			d.fail(w, r, http.StatusInternalServerError, "attempt unavailable", err)
			return answeredView{}, false
		}
		redirect(w, "/api/quiz")
		return answeredView{}, false
	}
	aa, ok := a.AnswerFor(qid)
	if !ok {
		redirect(w, "/api/quiz")
		return answeredView{}, false
	}
	q, err := store.GetQuestion(ctx, qid)
	if err != nil {
		if !errors.Is(err, quiz.ErrQuestionNotFound) {
			d.fail(w, r, http.StatusInternalServerError, "question unavailable", err)
			return answeredView{}, false
		}
		redirect(w, "/api/quiz")
		return answeredView{}, false
	}
	tally, err := d.Scorer.Tally(ctx, a)
	if err != nil {
		d.fail(w, r, http.StatusInternalServerError, "score attempt", err)
		return answeredView{}, false
	}

	all := make([]answerView, len(q.Answers))
	for i, ans := range q.Answers {
		all[i] = answerView{Text: ans.Text, IsCorrect: ans.IsCorrect}
	}
	return answeredView{
		QuestionID:      q.ID,
		Question:        q.Text,
		Image:           q.Image,
		SelectedAnswers: q.TextsFor(aa.Selected),
		CorrectAnswers:  q.CorrectTexts(),
		AllAnswers:      all,
		IsCorrect:       grading.IsCorrect(q, aa),
		stats:           statsOf(tally),
	}, true
}

// GET /api/next
func NextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/quiz", http.StatusSeeOther)
	}
}

// POST /api/reset drops the attempt from the session; the attempt itself is kept.
func ResetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := session.FromContext(r.Context())
		if s.CurrentQuestionID != 0 {
			d.dropMapping(r, s.ID, s.CurrentQuestionID)
		}
		s.AttemptID, s.CurrentQuestionID = 0, 0
		if err := d.Sessions.Save(w, s); err != nil {
			d.fail(w, r, http.StatusInternalServerError, "session", err)
			return
		}
		redirect(w, "/api/quiz")
	}
}
