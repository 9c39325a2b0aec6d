package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/phillip/event-ledger-go/ledger"
	"github.com/phillip/event-ledger-go/logger"
	middleware "github.com/phillip/event-ledger-go/middleware"
	"github.com/phillip/event-ledger-go/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic overdue sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())
		if err := a.cfg.RequireJWT(); err != nil {
			return err
		}

		log := logger.WithComponent("serve")

		r := gin.New()
		r.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())
		r.Use(cors.New(corsConfig(a.cfg.CORSOrigin)))
		routes.SetupRoutes(r, a.cfg, a.svc)

		srv := &http.Server{
			Addr:              ":" + a.cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if a.cfg.SweepInterval > 0 {
			go runSweeper(ctx, a.svc, a.cfg.SweepInterval)
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", "X-Request-ID"},
		ExposeHeaders:    []string{"ETag", "Last-Modified", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	for _, o := range strings.Split(origin, ",") {
		cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSpace(o))
	}
	return cfg
}

// runSweeper persists overdue transitions every interval until ctx ends.
func runSweeper(ctx context.Context, svc *ledger.Service, interval time.Duration) {
	log := logger.WithComponent("sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.SweepOverdue(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("overdue sweep failed")
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
