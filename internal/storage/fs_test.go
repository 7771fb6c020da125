package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonical(t *testing.T) {
	cases := map[string]string{
		"s3.png":           "s3.png",
		"images/s3.png":    "images/s3.png",
		"../../etc/passwd": "etc/passwd",
		"/abs/x.png":       "abs/x.png",
		"a/./b/../c.png":   "a/c.png",
		"":                 "",
	}
	for in, want := range cases {
		if got := canonical(in); got != want {
			t.Errorf("canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFSStore_PutGet(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}

	key, err := s.Put("../img/s3.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "img/s3.png" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(base, "img", "s3.png")); err != nil {
		t.Fatalf("file not under base: %v", err)
	}
	if !s.Exists(key) || s.Exists("img") {
		t.Fatal("Exists mismatch")
	}

	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png-bytes" {
		t.Fatalf("content = %q", b)
	}

	if _, err := s.Get("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Put("", strings.NewReader("")); err == nil {
		t.Fatal("empty key accepted")
	}
}
