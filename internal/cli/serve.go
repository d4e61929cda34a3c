package cli

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/royaltodo/internal/config"
	"github.com/idilsaglam/royaltodo/internal/server"
	"github.com/idilsaglam/royaltodo/internal/ui"
)

func (a *App) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the royal item API over a local backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg

			if a.log.GetLevel() > log.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}

			st, closeFn, err := openStore(ctx, cfg.ServeBackend, cfg, a.log)
			if err != nil {
				return err
			}
			defer closeFn()

			rl := server.NewRateLimiter(ctx, server.RateLimitOptions{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
				Max:      cfg.RateLimit,
				Window:   cfg.RateWindowDuration(),
			}, a.log)
			defer rl.Close()

			srv := server.New(st, server.Options{
				JWTSecret: cfg.JWTSecret,
				Limiter:   rl,
				Logger:    a.log,
			})
			ui.Info("royal API serving " + string(cfg.ServeBackend) + " store on " + cfg.Listen)
			if cfg.JWTSecret == "" {
				ui.Warn("no jwt_secret set, the API is open to anyone who can reach it")
			}
			return srv.Run(ctx, cfg.Listen)
		},
	}
	config.RegisterServeFlags(cmd.Flags())
	return cmd
}
