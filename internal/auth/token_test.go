package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	sec := "secret123"
	rid := "abc"
	exp := time.Now().Add(5 * time.Minute).Unix()

	tok, err := GenerateScreenToken(sec, rid, exp)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}

	gotRID, gotExp, err := ValidateScreenToken(sec, tok, rid, time.Now(), 60)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotRID != rid || gotExp != exp {
		t.Fatalf("mismatch: %s/%d", gotRID, gotExp)
	}
}

func TestBadSignature(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok, _ := GenerateScreenToken("secret123", "abc", exp)

	if _, _, err := ValidateScreenToken("other-secret", tok, "abc", time.Now(), 60); !errors.Is(err, ErrTokenSig) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestWrongRoom(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok, _ := GenerateScreenToken("secret123", "abc", exp)
	if _, _, err := ValidateScreenToken("secret123", tok, "xyz", time.Now(), 60); !errors.Is(err, ErrTokenRoom) {
		t.Fatalf("expected room mismatch, got %v", err)
	}
}

func TestExpiredBeyondSkew(t *testing.T) {
	now := time.Now()
	tok, _ := GenerateScreenToken("secret123", "abc", now.Add(-2*time.Minute).Unix())
	if _, _, err := ValidateScreenToken("secret123", tok, "abc", now, 60); !errors.Is(err, ErrTokenExp) {
		t.Fatalf("expected expiry, got %v", err)
	}
	tok, _ = GenerateScreenToken("secret123", "abc", now.Add(-30*time.Second).Unix())
	if _, _, err := ValidateScreenToken("secret123", tok, "abc", now, 60); err != nil {
		t.Fatalf("within skew should pass: %v", err)
	}
}

func TestMissingSecret(t *testing.T) {
	if _, err := GenerateScreenToken("", "abc", 1); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
