package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/shell/internal/config"
	"github.com/vango-dev/shell/pkg/activation"
	"github.com/vango-dev/shell/pkg/bootstrap"
	"github.com/vango-dev/shell/pkg/client"
	"github.com/vango-dev/shell/pkg/dom"
	"github.com/vango-dev/shell/pkg/session"
)

func navigateCmd(flags *globalFlags) *cobra.Command {
	var (
		baseURL      string
		printMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "navigate <path>...",
		Short: "Initialize a session and attach views for paths",
		Long: `Initialize a UI session against the application, activate the push
runtime and navigate to every path concurrently. For each path the
placeholder element id is printed once the server reports the view
ready.

Examples:
  shell navigate main/users
  shell navigate --base-url http://localhost:8080/ / users/42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = baseURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runNavigate(ctx, cfg, args, printMetrics, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&baseURL, "base-url", "u", "", "Application base URL (default from shell.json)")
	cmd.Flags().BoolVar(&printMetrics, "print-metrics", false, "Print bootstrap metrics when done")

	return cmd
}

// navigation is the outcome of one path.
type navigation struct {
	path string
	el   *dom.Element
}

func runNavigate(ctx context.Context, cfg *config.Config, paths []string, printMetrics bool, out io.Writer) error {
	logger := slog.Default()

	ini, err := session.NewInitializer(cfg.BaseURL, session.WithLogger(logger.With("component", "session")))
	if err != nil {
		return err
	}

	rt := client.New(client.WithLogger(logger.With("component", "client")))
	defer rt.Close()

	act := activation.New(rt.Loader(),
		activation.WithInterval(cfg.PollIntervalDuration()),
		activation.WithTimeout(cfg.ActivationTimeoutDuration()),
		activation.WithLogger(logger.With("component", "activation")))

	registry := prometheus.NewRegistry()
	b := bootstrap.New(ini, act, &bootstrap.Config{
		Logger: logger.With("component", "bootstrap"),
		Metrics: bootstrap.NewMetrics(
			bootstrap.WithNamespace(cfg.Metrics.Namespace),
			bootstrap.WithRegistry(registry)),
	})

	sess, err := b.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s (production=%v)\n", sess.AppID, sess.ProductionMode)

	results := make([]navigation, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			navCtx := gctx
			if d := cfg.NavigateTimeoutDuration(); d > 0 {
				var cancel context.CancelFunc
				navCtx, cancel = context.WithTimeout(gctx, d)
				defer cancel()
			}
			el, err := b.Navigate(navCtx, p)
			if err != nil {
				return fmt.Errorf("navigate %q: %w", p, err)
			}
			results[i] = navigation{path: p, el: el}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(out, "%s\t%s\n", r.el.ID, r.path)
	}

	if printMetrics {
		return writeMetrics(out, registry)
	}
	return nil
}

// writeMetrics writes every gathered metric family in text format.
func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
