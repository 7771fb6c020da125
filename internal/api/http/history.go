package http

import (
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type attemptSummary struct {
	ID             int64      `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TotalQuestions int        `json:"total_questions"`
	Answered       int        `json:"answered"`
	Complete       bool       `json:"complete"`
	stats
}

// GET /api/history  newest first
func HistoryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, _ := session.FromContext(ctx)

		attempts, err := d.Engine.Store().ListAttempts(ctx, d.HistoryLimit)
		if err != nil {
			d.fail(w, r, http.StatusInternalServerError, "list attempts", err)
			return
		}
		out := make([]attemptSummary, 0, len(attempts))
		var current *attemptSummary
		for _, a := range attempts {
			t, err := d.Scorer.Tally(ctx, a)
			if err != nil {
				d.fail(w, r, http.StatusInternalServerError, "score attempt", err)
				return
			}
			out = append(out, attemptSummary{
				ID:             a.ID,
				StartedAt:      a.StartedAt,
				CompletedAt:    a.CompletedAt,
				TotalQuestions: len(a.QuestionOrder),
				Answered:       len(a.Answers),
				Complete:       quiz.IsComplete(a),
				stats:          statsOf(t),
			})
			if a.ID == s.AttemptID {
				current = &out[len(out)-1]
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"attempts":        out,
			"current_attempt": current,
		})
	}
}
