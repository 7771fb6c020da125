package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := NewCodec("test-secret", time.Hour)
	in := Session{ID: "sid-1", AttemptID: 7, CurrentQuestionID: 3}

	tok, err := c.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Decode(tok)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
}

func TestCodec_RejectsTamperedAndForeignTokens(t *testing.T) {
	c := NewCodec("test-secret", time.Hour)
	tok, _ := c.Encode(Session{ID: "sid-1", AttemptID: 7})

	parts := strings.Split(tok, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := c.Decode(strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered signature accepted")
	}

	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{SessionID: "sid-1"}).SignedString([]byte("test-secret"))
	if _, err := c.Decode(raw); err == nil {
		t.Fatal("token signed with the raw secret accepted")
	}

	other := NewCodec("other-secret", time.Hour)
	if _, err := other.Decode(tok); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &claims{SessionID: "sid-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decode(unsigned); err == nil {
		t.Fatal("alg=none token accepted")
	}
}

func TestCodec_RejectsExpiredAndAnonymous(t *testing.T) {
	c := NewCodec("test-secret", time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	tok, _ := expired.SignedString(c.hmac)
	if _, err := c.Decode(tok); err == nil {
		t.Fatal("expired token accepted")
	}

	anon, _ := c.Encode(Session{})
	if _, err := c.Decode(anon); err == nil {
		t.Fatal("token without session id accepted")
	}
}
