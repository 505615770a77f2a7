package main

import (
	"github.com/j0lvera/sanga/internal/ai"
	"github.com/j0lvera/sanga/internal/bot"
	"github.com/j0lvera/sanga/internal/config"
	"github.com/j0lvera/sanga/internal/conversation"
	"github.com/j0lvera/sanga/internal/db"
	"github.com/j0lvera/sanga/internal/discord"
	"github.com/j0lvera/sanga/internal/health"
	"github.com/j0lvera/sanga/internal/log"
	"github.com/j0lvera/sanga/internal/telegram"
	"go.uber.org/fx"
)

func options() []fx.Option {
	return []fx.Option{
		fx.WithLogger(log.NewEventLogger),
		config.Module(),
		log.Module(),
		db.Module(),
		conversation.Module(),
		ai.Module(),
		bot.Module(),
		discord.Module(),
		telegram.Module(),
		health.Module(),
	}
}

func main() {
	fx.New(options()...).Run()
}
