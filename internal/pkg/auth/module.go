package auth

import (
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/melodiemacher/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordVerifier),
	fx.Provide(newTokenStrategy),
)

// Admin hashes are generated offline, so only the minimum bcrypt cost is enforced.
func newPasswordVerifier() PasswordVerifier {
	return NewBcryptVerifier(bcrypt.MinCost)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.SessionSecret, Options{TTL: p.Config.SessionTTL})
}
