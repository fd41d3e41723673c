package playback

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T, now *time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec("playback-secret", "lexora", WithClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)

	token, expiresAt, err := codec.Issue("vid-1", "user-1", 4*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.ContainsAny(token, "/ ") {
		t.Fatalf("token not URL-path safe: %q", token)
	}
	if want := now.Add(4 * time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("unexpected expiry %v, want %v", expiresAt, want)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.VideoID != "vid-1" || claims.UserID != "user-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyExpiryMonotonicity(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)

	token, _, err := codec.Issue("vid-1", "user-1", 4*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(4*time.Hour - time.Minute)
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("token should still verify one minute before expiry: %v", err)
	}

	// 4 hours and 1 second after mint.
	now = now.Add(time.Minute + time.Second)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	now = now.Add(24 * time.Hour)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired much later too, got %v", err)
	}
}

func TestVerifyTamperRejection(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)

	token, _, err := codec.Issue("vid-1", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip one character in every position; no mutation may verify.
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		flip := byte('A')
		if token[i] == 'A' {
			flip = 'B'
		}
		mutated := token[:i] + string(flip) + token[i+1:]
		if mutated == token {
			continue
		}
		_, err := codec.Verify(mutated)
		if err == nil {
			t.Fatalf("mutated token accepted at position %d", i)
		}
		if !errors.Is(err, ErrTokenSignature) && !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("unexpected error kind at position %d: %v", i, err)
		}
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)
	other, err := NewCodec("other-secret", "lexora", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, _, err := other.Issue("vid-1", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("", "lexora"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueRequiresSubjects(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)
	if _, _, err := codec.Issue("", "user-1", time.Hour); err == nil {
		t.Fatal("expected error for empty video id")
	}
	if _, _, err := codec.Issue("vid-1", "", time.Hour); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestTwoTokensAreIndependent(t *testing.T) {
	now := time.Now().UTC()
	codec := newTestCodec(t, &now)

	t1, _, err := codec.Issue("vid-1", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t2, _, err := codec.Issue("vid-1", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if t1 == t2 {
		t.Fatal("expected distinct tokens for the same (video, user) pair")
	}
	for _, token := range []string{t1, t2} {
		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if claims.VideoID != "vid-1" || claims.UserID != "user-1" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}
}
