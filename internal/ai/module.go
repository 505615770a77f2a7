package ai

import (
	"github.com/j0lvera/sanga/internal/bot"
	"github.com/j0lvera/sanga/internal/config"
	"go.uber.org/fx"
)

// Params for creating an AI service
type Params struct {
	fx.In

	Config *config.Config
}

// Result of creating an AI service
type Result struct {
	fx.Out

	Completer bot.Completer
}

// New creates a new AI service based on configuration
func New(p Params) (Result, error) {
	service, err := NewService(Options{
		APIKey:      p.Config.APIKey,
		BaseURL:     p.Config.BaseURL,
		Model:       p.Config.Model,
		MaxTokens:   p.Config.MaxTokens,
		Temperature: p.Config.Temperature,
		Timeout:     p.Config.CompletionTimeout,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Completer: service,
	}, nil
}

// Module provides the AI service
func Module() fx.Option {
	return fx.Module(
		"ai",
		fx.Provide(
			New,
		),
	)
}
