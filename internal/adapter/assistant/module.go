package assistant

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
)

// Module exposes the assistant to the fx graph.
var Module = fx.Provide(newAssistant)

type assistantParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newAssistant(p assistantParams) Assistant {
	if p.Config.GeminiAPIKey == "" {
		p.Logger.Warn("gemini key not configured, orders stay unscored")
		return Disabled{}
	}
	g, err := NewGemini(context.Background(), p.Config.GeminiAPIKey, p.Config.GeminiModel, p.Logger)
	if err != nil {
		p.Logger.Error("gemini client unavailable", slog.String("error", err.Error()))
		return Disabled{}
	}
	return g
}
