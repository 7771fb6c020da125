package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/explain"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// Deps is everything the quiz handlers close over.
type Deps struct {
	Engine       *quiz.Engine
	Scorer       *grading.Scorer
	Explain      *explain.Cache
	Sessions     *session.Manager
	Mappings     session.MappingStore
	Blobs        storage.BlobStore // optional
	Metrics      *metrics.Metrics  // optional
	Log          *zap.Logger
	HistoryLimit int
}

// Mount registers the quiz routes on r.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r.Group(func(sr chi.Router) {
		sr.Use(d.Sessions.Middleware)
		sr.Get("/api/quiz", QuizHandler(d))
		sr.Post("/api/submit", SubmitHandler(d))
		sr.Get("/api/answered/{qid}", AnsweredHandler(d))
		sr.Get("/api/explain/{qid}", ExplainHandler(d))
		sr.Get("/api/next", NextHandler())
		sr.Post("/api/reset", ResetHandler(d))
		sr.Get("/api/history", HistoryHandler(d))
	})
	if d.Blobs != nil {
		r.Route("/images", func(ir chi.Router) {
			MountImages(ir, d.Blobs)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// redirect tells the client to re-enter the flow at url.
func redirect(w http.ResponseWriter, url string) {
	w.Header().Set("Location", url)
	writeJSON(w, http.StatusSeeOther, map[string]string{"redirect": url})
}

func (d Deps) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	d.Log.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, msg, status)
}
