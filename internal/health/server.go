package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/sanga/internal/config"
)

// Status is the body served on GET /.
const Status = "Bot is running!"

// Handler answers liveness probes.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(Status))
	})
	return mux
}

type Params struct {
	fx.In

	Config *config.Config
	Logger zerolog.Logger
}

// Register serves the liveness endpoint when PORT is set.
func Register(lc fx.Lifecycle, p Params) {
	if p.Config.Port == "" {
		return
	}

	srv := &http.Server{
		Addr:              ":" + p.Config.Port,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return fmt.Errorf("unable to listen on %s: %w", srv.Addr, err)
				}
				p.Logger.Info().Str("addr", srv.Addr).Msg("health server listening")
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						p.Logger.Error().Err(err).Msg("health server stopped")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		},
	)
}

func Module() fx.Option {
	return fx.Module(
		"health",
		fx.Invoke(
			Register,
		),
	)
}
