package discord

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/sanga/internal/bot"
	"github.com/j0lvera/sanga/internal/config"
)

type Params struct {
	fx.In

	Config  *config.Config
	Handler *bot.Handler
	Logger  zerolog.Logger
}

// Register wires the Discord adapter into the lifecycle when it is the selected platform.
func Register(lc fx.Lifecycle, p Params) error {
	if p.Config.Platform != config.PlatformDiscord {
		return nil
	}

	log := p.Logger.With().Str("component", "discord").Logger()
	adapter, err := New(p.Config.DiscordToken, p.Handler, &log)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				log.Info().Msg("starting discord bot...")
				if err := adapter.Start(); err != nil {
					return fmt.Errorf("discord: opening gateway: %w", err)
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping discord bot...")
				return adapter.Stop()
			},
		},
	)

	return nil
}

func Module() fx.Option {
	return fx.Module(
		"discord",
		fx.Invoke(
			Register,
		),
	)
}
