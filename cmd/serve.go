package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bnema/warehouse-showcase/internal/adapters/httpapi"
	"github.com/bnema/warehouse-showcase/internal/config"
	"github.com/bnema/warehouse-showcase/internal/server"
	"github.com/spf13/cobra"
)

const readHeaderTimeout = 10 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var (
		addr string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator behind the dashboard JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode == "" {
				mode = app.settings.Mode
			}
			if addr == "" {
				addr = app.settings.HTTP.Addr
			}
			return runServe(cmd.Context(), app, addr, mode)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from http.addr)")
	cmd.Flags().StringVar(&mode, "mode", "", "Robot binding: simulated or remote (default from mode)")

	return cmd
}

func runServe(parent context.Context, app *app, addr, mode string) error {
	if mode != config.ModeSimulated && mode != config.ModeRemote {
		return fmt.Errorf("unsupported mode %q", mode)
	}

	operators := make([]httpapi.Operator, 0, len(app.settings.Operators))
	for _, operator := range app.settings.Operators {
		operators = append(operators, httpapi.Operator{Name: operator.Name, PasswordHash: operator.PasswordHash})
	}
	auth, err := httpapi.NewAuthenticator(operators, app.settings.HTTP.SessionTTL, app.clock)
	if err != nil {
		return fmt.Errorf("wire authenticator: %w (add [[operators]] with `ams hash-password`)", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.newRuntime(ctx, mode, 1)
	if err != nil {
		return err
	}

	deps := httpapi.Deps{
		Coordinator:   rt.coordinator,
		Auth:          auth,
		Notifications: rt.notifications,
		Logger:        app.logger.With("component", "httpapi"),
	}
	if rt.poller != nil {
		remote, err := app.remoteClient(ctx)
		if err != nil {
			return err
		}
		deps.Categories = remote.FetchCategories
		deps.Refresh = rt.poller.Refresh
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	runBackground := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
				stop()
			}
		}()
	}

	runBackground("coordinator", rt.coordinator.Run)
	if rt.poller != nil {
		runBackground("poller", rt.poller.Run)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	app.logger.Info("listening", "addr", addr, "mode", mode)
	serveErr := server.Run(ctx, srv, app.settings.HTTP.ShutdownTimeout)
	stop()
	wg.Wait()
	rt.coordinator.Wait()
	close(errCh)

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}
