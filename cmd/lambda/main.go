package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"welcome-bot/handler"
	"welcome-bot/internal/cards"
	"welcome-bot/internal/integrations/connector"
	"welcome-bot/internal/integrations/paramstore"
	"welcome-bot/internal/repository"
	"welcome-bot/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	cardPath := envOrDefault("CARD_PATH", cards.DefaultWelcomeCardPath)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	stateClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}
	sender, err := connector.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create connector client", "err", err)
		os.Exit(1)
	}
	cardProvider, err := cards.NewFileProvider(cardPath)
	if err != nil {
		slog.Error("failed to create card provider", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	dispatcher, err := usecase.NewDispatcher(stateClient, cardProvider)
	if err != nil {
		slog.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(dispatcher, sender)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
