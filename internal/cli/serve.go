package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ohare93/delegate/internal/config"
	"github.com/ohare93/delegate/internal/server"
)

func newServeCmd(opts *GlobalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the JSON API under /api.

Requests authenticate with HTTP Basic credentials (login and password).
POST /api/users and GET /api/health are open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default http.addr from config)")
	return cmd
}

func runServe(ctx context.Context, opts *GlobalOptions, addr string) error {
	a, err := openServerApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.HTTP.Addr
	}
	if a.cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(a.svc, a.dir, a.auth, a.log.WithField("component", "http"))
	return srv.Run(ctx, addr)
}
