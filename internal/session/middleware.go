package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager loads the session cookie into the request context and writes it
// back when handlers change it.
type Manager struct {
	codec  *Codec
	cookie string
	secure bool
	ttl    time.Duration
}

func NewManager(codec *Codec, cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "quiz_session"
	}
	return &Manager{codec: codec, cookie: cookieName, secure: secure, ttl: codec.ttl}
}

// Middleware attaches a Session to every request. A missing, expired or
// tampered cookie yields a fresh session rather than an error.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := m.load(r)
		if !ok {
			s = Session{ID: uuid.NewString()}
			if err := m.Save(w, s); err != nil {
				http.Error(w, "session", http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (m *Manager) load(r *http.Request) (Session, bool) {
	c, err := r.Cookie(m.cookie)
	if err != nil || c.Value == "" {
		return Session{}, false
	}
	s, err := m.codec.Decode(c.Value)
	if err != nil {
		return Session{}, false
	}
	return s, true
}

// Save must be called before the response body is written.
func (m *Manager) Save(w http.ResponseWriter, s Session) error {
	tok, err := m.codec.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}
