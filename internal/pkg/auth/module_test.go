package auth

import (
	"testing"
	"time"

	"github.com/polkiloo/melodiemacher/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordVerifier(t *testing.T) {
	verifier, ok := newPasswordVerifier().(*BcryptVerifier)
	if !ok {
		t.Fatalf("expected *BcryptVerifier, got %T", newPasswordVerifier())
	}
	if verifier.minCost != bcrypt.MinCost {
		t.Fatalf("unexpected cost: %d", verifier.minCost)
	}
}

func TestNewTokenStrategy(t *testing.T) {
	strategy := newTokenStrategy(strategyParams{Config: &config.Config{SessionSecret: "top-secret", SessionTTL: 3 * time.Hour}})
	hmacStrategy, ok := strategy.(*HMACStrategy)
	if !ok {
		t.Fatalf("expected *HMACStrategy, got %T", strategy)
	}
	if string(hmacStrategy.secret) != "top-secret" {
		t.Fatalf("unexpected secret: %q", string(hmacStrategy.secret))
	}
	if hmacStrategy.ttl != 3*time.Hour {
		t.Fatalf("unexpected ttl: %s", hmacStrategy.ttl)
	}
}
