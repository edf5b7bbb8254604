package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transport "ranczo-quiz/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the local UI server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the quiz engine to a local UI over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", os.Getenv("PORT"), "port to listen on (overrides config)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	rt, err := buildRuntime(ctx, configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = rt.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	addr := net.JoinHostPort(rt.cfg.Server.Host, finalPort)

	server := &http.Server{
		Addr:        addr,
		Handler:     transport.NewServer(rt.engine, rt.log).Routes(),
		ReadTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.WithField("addr", addr).Info("starting quiz server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		rt.log.Info("shutting down server")
	case <-ctx.Done():
		rt.log.Info("context canceled, shutting down server")
	case err := <-errCh:
		rt.log.WithError(err).Error("server failed")
		_ = rt.shutdown(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.log.WithError(err).Warn("http shutdown")
	}
	return rt.shutdown(shutdownCtx)
}
