package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_IssuesAndRestoresSession(t *testing.T) {
	m := NewManager(NewCodec("test-secret", time.Hour), "", false)
	var seen Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("no session in context")
		}
		seen = s
		s.AttemptID = 5
		if err := m.Save(w, s); err != nil {
			t.Fatal(err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen.ID == "" || seen.AttemptID != 0 {
		t.Fatalf("fresh session = %+v", seen)
	}
	first := seen.ID

	cookies := rec.Result().Cookies()
	var last *http.Cookie
	for _, c := range cookies {
		if c.Name == "quiz_session" {
			last = c
		}
	}
	if last == nil || !last.HttpOnly || last.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie = %+v", last)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(last)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen.ID != first || seen.AttemptID != 5 {
		t.Fatalf("restored session = %+v, want id %s attempt 5", seen, first)
	}

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: "quiz_session", Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), bad)
	if seen.ID == "" || seen.ID == first || seen.AttemptID != 0 {
		t.Fatalf("garbage cookie should yield a fresh session, got %+v", seen)
	}
}
