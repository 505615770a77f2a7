package bot

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/sanga/internal/config"
	"github.com/j0lvera/sanga/internal/conversation"
)

type Params struct {
	fx.In

	Config    *config.Config
	Store     conversation.Store
	Locks     *conversation.Locks
	Completer Completer
	Logger    zerolog.Logger
}

func New(p Params) *Handler {
	log := p.Logger.With().Str("component", "handler").Logger()
	return NewHandler(HandlerParams{
		Store:      p.Store,
		Locks:      p.Locks,
		Completer:  p.Completer,
		Persona:    p.Config.Persona(),
		ErrorReply: p.Config.ErrorReply,
		Logger:     &log,
	})
}

func Module() fx.Option {
	return fx.Module(
		"bot",
		fx.Provide(
			New,
		),
	)
}
