package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/homecare/pkg/adapters/http"
	"github.com/aretw0/homecare/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = time.Minute
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Port    string
	Version string
	Debug   bool
	Out     io.Writer
	// Listener, when set, replaces listening on Port.
	Listener net.Listener
}

// Serve exposes the flow catalog over HTTP until ctx is cancelled or a
// termination signal arrives.
func Serve(ctx context.Context, app *App, opts ServeOptions) error {
	if opts.Port == "" {
		opts.Port = app.Config.Port
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	sigCtx := catchSignals(ctx)
	defer sigCtx.Stop()

	sessions := session.NewManager(
		session.WithIdleTimeout(app.Config.SessionIdle),
		session.WithLogger(app.Logger),
	)
	go sessions.Run(sigCtx, pruneInterval)

	var gatherer prometheus.Gatherer
	if app.Registry != nil {
		gatherer = app.Registry
	}
	handler := httpadapter.NewHandler(httpadapter.Config{
		Sessions: sessions,
		Deps:     app.Deps(nil, opts.Debug),
		Gatherer: gatherer,
		Logger:   app.Logger,
		Version:  opts.Version,
	})

	srv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting homecare server", "addr", srv.Addr, "api", app.Config.APIURL)
		fmt.Fprintf(opts.Out, "Serving homecare flows on %s\n", srv.Addr)
		if opts.Listener != nil {
			serverErrors <- srv.Serve(opts.Listener)
			return
		}
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
		app.Logger.Info("Shutting down", "signal", sigCtx.Caught())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("close server: %w", err)
			}
		}
		fmt.Fprintln(opts.Out, "homecare server stopped gracefully")
		return nil
	}
}
