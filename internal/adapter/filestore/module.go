package filestore

import (
	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
)

// Module exposes the local file store.
var Module = fx.Provide(
	newLocal,
	func(l *Local) Store { return l },
)

func newLocal(cfg *config.Config) *Local {
	return NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
}
