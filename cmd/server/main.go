package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"welcome-bot/internal/cards"
	"welcome-bot/internal/config"
	"welcome-bot/internal/httpapi"
	"welcome-bot/internal/integrations/connector"
	"welcome-bot/internal/integrations/paramstore"
	"welcome-bot/internal/repository"
	"welcome-bot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, continuing with system environment", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	store, err := repository.OpenSQLite(cfg.StatePath)
	if err != nil {
		slog.Error("failed to open counter store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	getter, err := newTokenGetter(ctx, cfg.Connector)
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	sender, err := buildSender(cfg.Connector, getter)
	if err != nil {
		slog.Error("failed to create connector client", "err", err)
		os.Exit(1)
	}

	cardProvider, err := cards.NewFileProvider(cfg.CardPath)
	if err != nil {
		slog.Error("failed to create card provider", "err", err)
		os.Exit(1)
	}

	dispatcher, err := usecase.NewDispatcher(store, cardProvider)
	if err != nil {
		slog.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(dispatcher, sender)
	startServer(ctx, cfg.Server, router)
}

// newTokenGetter builds the SSM-backed parameter getter for bearer-token
// retrieval. Auth-disabled runs need none.
func newTokenGetter(ctx context.Context, cfg config.ConnectorConfig) (connector.Getter, error) {
	if cfg.AuthDisabled {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return paramstore.New(awsssm.NewFromConfig(awsCfg))
}

// buildSender assembles the connector client from configuration. With auth
// enabled the getter must be present; config.Load guarantees the prefix is.
func buildSender(cfg config.ConnectorConfig, getter connector.Getter) (*connector.Client, error) {
	opts := []connector.Option{}
	if cfg.AuthDisabled {
		opts = append(opts, connector.WithAuthDisabled())
	}
	if cfg.ServiceURL != "" {
		opts = append(opts, connector.WithServiceURL(cfg.ServiceURL))
	}
	return connector.NewClient(getter, cfg.ParamPrefix, opts...)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("welcome-bot listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
