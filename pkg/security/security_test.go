package security

import (
	"testing"

	"github.com/velorashop/velora-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	// Minimal parameters keep the test fast; production values come from env.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("correct horse battery staple", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = VerifyPassword("wrong password", encoded)
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("whatever", "not-an-argon2id-hash"); err == nil {
		t.Fatal("expected malformed hash to return an error")
	}
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	token, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("generate csrf token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	if !VerifyCSRFToken(token, token) {
		t.Fatal("expected identical tokens to verify")
	}
	if VerifyCSRFToken(token, token+"x") {
		t.Fatal("expected tampered token to fail")
	}
	if VerifyCSRFToken("", "") {
		t.Fatal("empty tokens must never verify")
	}

	other, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("generate second token: %v", err)
	}
	if token == other {
		t.Fatal("two generated tokens should differ")
	}
}
