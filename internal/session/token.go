package session

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Session is the per-learner state threaded through request handling. It is
// carried in a signed cookie, so it holds references only.
type Session struct {
	ID                string
	AttemptID         int64 // 0 when no attempt has been started
	CurrentQuestionID int64 // question whose presentation is outstanding
}

type Codec struct {
	hmac []byte
	ttl  time.Duration
}

// NewCodec derives the HS256 signing key from secret, so the raw
// SESSION_SECRET value never signs anything directly.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Codec{hmac: deriveKey(secret), ttl: ttl}
}

func deriveKey(secret string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("mindengage-quiz session v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashLen bytes
		panic(err)
	}
	return key
}

type claims struct {
	SessionID         string `json:"sid"`
	AttemptID         int64  `json:"attempt_id,omitempty"`
	CurrentQuestionID int64  `json:"current_question_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Codec) Encode(s Session) (string, error) {
	now := time.Now()
	cl := &claims{
		SessionID:         s.ID,
		AttemptID:         s.AttemptID,
		CurrentQuestionID: s.CurrentQuestionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-quiz",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return t.SignedString(c.hmac)
}

func (c *Codec) Decode(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, err
	}
	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid || cl.SessionID == "" {
		return Session{}, errors.New("session: invalid token")
	}
	return Session{ID: cl.SessionID, AttemptID: cl.AttemptID, CurrentQuestionID: cl.CurrentQuestionID}, nil
}
