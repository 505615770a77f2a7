package conversation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/sanga/internal/config"
	"github.com/j0lvera/sanga/internal/db"
)

// Params for creating a Store
type Params struct {
	fx.In

	Config   *config.Config
	DBClient *db.Client `optional:"true"`
	Logger   zerolog.Logger
}

// Result of creating a Store
type Result struct {
	fx.Out

	Store Store
	Locks *Locks
}

// New picks the store backend named by the configuration.
func New(lc fx.Lifecycle, p Params) (Result, error) {
	limit := p.Config.HistoryLimit
	var store Store

	switch p.Config.StoreBackend {
	case config.BackendMemory:
		store = NewMemoryStore(limit)

	case config.BackendPostgres:
		if p.DBClient == nil {
			return Result{}, fmt.Errorf("postgres store selected without a database client")
		}
		pg := NewPostgresStore(p.DBClient.Pool, limit)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return pg.Migrate(ctx)
			},
		})
		store = pg

	case config.BackendBolt:
		bs, err := OpenBoltStore(p.Config.BoltPath, limit)
		if err != nil {
			return Result{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				p.Logger.Info().Msg("closing bolt store")
				return bs.Close()
			},
		})
		store = bs

	default:
		return Result{}, fmt.Errorf("%w: %q", config.ErrUnknownBackend, p.Config.StoreBackend)
	}

	p.Logger.Info().
		Str("backend", p.Config.StoreBackend).
		Int("history_limit", limit).
		Msg("conversation store ready")

	return Result{
		Store: store,
		Locks: NewLocks(),
	}, nil
}

// Module provides the conversation Store
func Module() fx.Option {
	return fx.Module(
		"conversation",
		fx.Provide(
			New,
		),
	)
}
