package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/build"
	"github.com/joestump/joe-market/internal/handler"
	"github.com/joestump/joe-market/internal/market"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closer, err := setup("main")
			if err != nil {
				return err
			}
			defer closer()

			e.log.Infof("starting %s", build.String())

			router := handler.NewRouter(handler.Deps{
				Chain:      market.NewChain(e.db, logger.New("chain")),
				TokenStore: auth.NewSQLTokenStore(e.db),
				Log:        logger.New("api"),
			})

			srv := &http.Server{Addr: e.cfg.HTTP.Addr, Handler: router}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				e.log.Infof("listening on %s", e.cfg.HTTP.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			e.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
