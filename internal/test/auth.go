package test

import (
	"errors"
	"strings"

	pkgAuth "github.com/polkiloo/melodiemacher/internal/pkg/auth"
)

// VerifierStub accepts hashes of the form "hash:<password>".
type VerifierStub struct {
	CompareFn func(string, string) error
}

// CheckHash rejects anything without the "hash:" prefix.
func (VerifierStub) CheckHash(hash string) error {
	if !strings.HasPrefix(hash, "hash:") {
		return errors.New("malformed hash")
	}
	return nil
}

// Compare validates password against stored hash.
func (v VerifierStub) Compare(hash string, password string) error {
	if v.CompareFn != nil {
		return v.CompareFn(hash, password)
	}
	if hash != "hash:"+password {
		return pkgAuth.ErrPasswordMismatch
	}
	return nil
}

// StrategyStub issues "token:<subject>" and parses it back.
type StrategyStub struct {
	IssueFn func(string) (string, error)
	ParseFn func(string) (string, error)
	NameVal string
}

// IssueToken returns deterministic tokens for tests.
func (s StrategyStub) IssueToken(subject string) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(subject)
	}
	return "token:" + subject, nil
}

// ParseToken parses previously issued token strings.
func (s StrategyStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	const prefix = "token:"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", pkgAuth.ErrInvalidToken
	}
	return token[len(prefix):], nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

var _ pkgAuth.PasswordVerifier = VerifierStub{}
var _ pkgAuth.Strategy = StrategyStub{}
