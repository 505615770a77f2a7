package telegram

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

// Register wires the Telegram adapter into the lifecycle when it is the selected platform.
func Register(lc fx.Lifecycle, p Params) error {
	if p.Config.Platform != config.PlatformTelegram {
		return nil
	}

	log := p.Logger.With().Str("component", "telegram").Logger()
	adapter, err := New(p.Config.TelegramToken, p.Handler, &log)
	if err != nil {
		return fmt.Errorf("telegram: creating bot: %w", err)
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				log.Info().Msg("starting telegram bot...")
				return adapter.Start(ctx)
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping telegram bot...")
				adapter.Stop()
				return nil
			},
		},
	)

	return nil
}

func Module() fx.Option {
	return fx.Module(
		"telegram",
		fx.Invoke(
			Register,
		),
	)
}
