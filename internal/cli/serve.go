package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
	"rationdesk/internal/database"
	"rationdesk/internal/handler"
	"rationdesk/internal/localstore"
	"rationdesk/internal/service"
	"rationdesk/internal/syncstatus"
	"rationdesk/internal/tracker"
	"rationdesk/internal/worker"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sync worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// server is the wired application: HTTP API, sync worker and the stores
// they share.
type server struct {
	http   *http.Server
	worker *worker.SyncWorker
	close  func()
}

// newServer wires every component. An unreachable remote store is not
// fatal: reads fall back to sample and local data and writes wait in the
// outbox until the remote answers.
func newServer(ctx context.Context, cfg *config.Config) (*server, error) {
	db, err := database.Open(cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		slog.Warn("remote store unreachable, starting offline", "error", err)
	} else if err := database.Migrate(ctx, db); err != nil {
		slog.Warn("remote migrations failed", "error", err)
	}

	local, err := openLocal(ctx, cfg)
	if err != nil {
		database.CloseDB(db)
		return nil, err
	}

	// Services
	authSvc := service.NewAuthService(db)
	orderSvc := service.NewOrderService(db)
	status := syncstatus.New()

	// Worker
	syncWorker := worker.NewSyncWorker(local, orderSvc, status, worker.Options{
		Interval:  cfg.SyncInterval,
		BatchSize: cfg.SyncBatch,
		Timeout:   cfg.RemoteTimeout,
	})
	orders := tracker.New(local, orderSvc, syncWorker, cfg.RemoteTimeout)

	return &server{
		http: &http.Server{
			Addr: cfg.RunAddress,
			Handler: handler.NewRouter(handler.Deps{
				Accounts:  authSvc,
				Orders:    orders,
				Flags:     local,
				Sync:      status,
				JWTSecret: cfg.JWTSecret,
			}),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		worker: syncWorker,
		close: func() {
			if err := local.Close(); err != nil {
				slog.Error("failed to close local store", "error", err)
			}
			database.CloseDB(db)
		},
	}, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.close()

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.RunAddress)
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.http.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func openLocal(ctx context.Context, cfg *config.Config) (localstore.Store, error) {
	local, err := localstore.Open(ctx, localstore.Options{
		Backend:       cfg.LocalBackend,
		Path:          cfg.LocalPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return local, nil
}
