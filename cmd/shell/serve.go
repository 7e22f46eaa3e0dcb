package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shell/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr       string
		routes     []string
		production bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference shell server",
		Long: `Run a server implementing the init and push endpoints.

Every route pattern (chi syntax) is answered with a ready view; other
paths are rejected with a not-found error.

Examples:
  shell serve
  shell serve --addr :8080 --route main/users --route 'users/{id}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("route") {
				cfg.Server.Routes = routes
			}
			if cmd.Flags().Changed("production") {
				cfg.Server.ProductionMode = production
			}

			srvConfig := &server.ServerConfig{
				Address:        cfg.Server.Addr,
				ProductionMode: cfg.Server.ProductionMode,
				MaxApps:        cfg.Server.MaxApps,
				PingInterval:   cfg.PingIntervalDuration(),
				EnableMetrics:  cfg.Metrics.Enabled,
			}
			if err := srvConfig.ValidateConfig(); err != nil {
				return err
			}

			srv := server.New(srvConfig, server.NewRouteBinder(cfg.Server.Routes...),
				server.WithMetricsNamespace(cfg.Metrics.Namespace))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success("Serving on %s", cfg.Server.Addr)
			for _, r := range cfg.Server.Routes {
				info("route %s", r)
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from shell.json)")
	cmd.Flags().StringSliceVarP(&routes, "route", "r", nil, "Route pattern with a view (repeatable)")
	cmd.Flags().BoolVar(&production, "production", false, "Report production mode to clients")

	return cmd
}
