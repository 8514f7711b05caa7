package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, password string, cost int) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestNewBcryptVerifier_DefaultCost(t *testing.T) {
	if v := NewBcryptVerifier(0); v.minCost != bcrypt.DefaultCost {
		t.Fatalf("unexpected cost: %d", v.minCost)
	}
	if v := NewBcryptVerifier(12); v.minCost != 12 {
		t.Fatalf("unexpected cost: %d", v.minCost)
	}
}

func TestBcryptVerifier_Compare(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)
	hash := mustHash(t, "geheim", bcrypt.MinCost)

	if err := v.Compare(hash, "geheim"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := v.Compare(hash, "falsch"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := v.Compare("not-a-hash", "geheim"); err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected malformed hash error, got %v", err)
	}
}

func TestBcryptVerifier_CheckHash(t *testing.T) {
	cases := []struct {
		name    string
		minCost int
		hash    string
		wantErr error
		anyErr  bool
	}{
		{"valid", bcrypt.MinCost, mustHash(t, "geheim", bcrypt.MinCost), nil, false},
		{"too weak", bcrypt.MinCost + 1, mustHash(t, "geheim", bcrypt.MinCost), ErrWeakHash, true},
		{"plain text", bcrypt.MinCost, "geheim", nil, true},
		{"empty", bcrypt.MinCost, "", nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewBcryptVerifier(tc.minCost).CheckHash(tc.hash)
			if (err != nil) != tc.anyErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
