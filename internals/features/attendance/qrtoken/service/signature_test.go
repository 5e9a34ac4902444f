package service

import (
	"strings"
	"testing"
	"time"
)

func TestSignDeterministic(t *testing.T) {
	secret := []byte("test-secret")
	exp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	a := Sign(secret, 42, exp)
	b := Sign(secret, 42, exp)
	if a != b {
		t.Fatalf("same inputs produced different signatures: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestSignSeparatesOrganisations(t *testing.T) {
	secret := []byte("test-secret")
	exp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	if Sign(secret, 1, exp) == Sign(secret, 2, exp) {
		t.Fatal("different organisations produced the same signature")
	}
}

func TestSignDependsOnExpiry(t *testing.T) {
	secret := []byte("test-secret")
	exp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	if Sign(secret, 1, exp) == Sign(secret, 1, exp.Add(time.Millisecond)) {
		t.Fatal("different expiries produced the same signature")
	}
}

func TestSignDependsOnSecret(t *testing.T) {
	exp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	if Sign([]byte("secret-a"), 1, exp) == Sign([]byte("secret-b"), 1, exp) {
		t.Fatal("different secrets produced the same signature")
	}
}

func TestSignatureEqual(t *testing.T) {
	secret := []byte("test-secret")
	sig := Sign(secret, 7, time.Now())

	if !SignatureEqual(sig, sig) {
		t.Fatal("signature should equal itself")
	}
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	if SignatureEqual(sig, string(flipped)) {
		t.Fatal("tampered signature should not compare equal")
	}
}

func TestGenerateUniqueCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code := GenerateUniqueCode()
		if !strings.HasPrefix(code, "SATad1-") {
			t.Fatalf("unexpected code format: %s", code)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code generated: %s", code)
		}
		seen[code] = struct{}{}
	}
}
