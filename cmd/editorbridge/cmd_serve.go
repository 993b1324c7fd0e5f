package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forumkit/editorbridge/internal/config"
	"github.com/forumkit/editorbridge/internal/engine"
	"github.com/forumkit/editorbridge/internal/transport"
)

// newServeCmd creates the "editorbridge serve" subcommand. It exposes the
// document-engine side of the bridge over a WebSocket endpoint, one engine per
// connection, so a composer host can drive it remotely.
func newServeCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document engine over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Transport.ListenAddr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Transport.Path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.Accept(w, r)
		if err != nil {
			slog.Error("serve: upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer conn.Close()
		slog.Info("serve: host connected", "remote", r.RemoteAddr)

		eng := engine.New(conn, engine.Config{
			Prefix:         cfg.Bridge.Prefix,
			HeightThrottle: time.Duration(cfg.Bridge.HeightThrottleMS) * time.Millisecond,
			HeightFallback: time.Duration(cfg.Bridge.HeightFallbackMS) * time.Millisecond,
		})
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("serve: engine stopped", "remote", r.RemoteAddr, "err", err)
		}
		slog.Info("serve: host disconnected", "remote", r.RemoteAddr)
	})

	srv := &http.Server{Addr: cfg.Transport.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serve: listening", "addr", cfg.Transport.ListenAddr, "path", cfg.Transport.Path)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
