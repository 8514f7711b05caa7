package usecase

import (
	"strings"
	"time"

	"github.com/polkiloo/melodiemacher/internal/config"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	pkgAuth "github.com/polkiloo/melodiemacher/internal/pkg/auth"
)

// AdminAuthUseCase authenticates the dashboard operator.
type AdminAuthUseCase struct {
	email        string
	passwordHash string
	verifier     pkgAuth.PasswordVerifier
	tokens       pkgAuth.Strategy
	ttl          time.Duration
}

// NewAdminAuthUseCase constructs AdminAuthUseCase. A configured hash that the
// verifier rejects disables login.
func NewAdminAuthUseCase(cfg *config.Config, verifier pkgAuth.PasswordVerifier, strategy pkgAuth.Strategy) *AdminAuthUseCase {
	hash := strings.TrimSpace(cfg.AdminPasswordHash)
	if hash != "" && verifier.CheckHash(hash) != nil {
		hash = ""
	}
	return &AdminAuthUseCase{
		email:        strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		passwordHash: hash,
		verifier:     verifier,
		tokens:       strategy,
		ttl:          cfg.SessionTTL,
	}
}

// LoginEnabled reports whether a usable admin password hash is configured.
func (u *AdminAuthUseCase) LoginEnabled() bool {
	return u.passwordHash != ""
}

// Login checks the credentials and returns a session token.
func (u *AdminAuthUseCase) Login(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if u.passwordHash == "" || email == "" || password == "" {
		return "", domainErrors.ErrInvalidCredentials
	}
	if email != u.email {
		return "", domainErrors.ErrInvalidCredentials
	}
	if err := u.verifier.Compare(u.passwordHash, password); err != nil {
		return "", domainErrors.ErrInvalidCredentials
	}
	return u.tokens.IssueToken(u.email)
}

// ParseToken validates a session token and returns the admin identity.
func (u *AdminAuthUseCase) ParseToken(token string) (string, error) {
	if token == "" {
		return "", pkgAuth.ErrInvalidToken
	}
	subject, err := u.tokens.ParseToken(token)
	if err != nil {
		return "", err
	}
	if subject != u.email {
		return "", pkgAuth.ErrInvalidToken
	}
	return subject, nil
}

// SessionTTL is the lifetime of issued tokens.
func (u *AdminAuthUseCase) SessionTTL() time.Duration {
	return u.ttl
}
