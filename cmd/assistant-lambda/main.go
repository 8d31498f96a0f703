package main

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/appointment-assistant/cmd/mainconfig"
	"github.com/wolfman30/appointment-assistant/internal/app/bootstrap"
	"github.com/wolfman30/appointment-assistant/internal/assistant"
	appconfig "github.com/wolfman30/appointment-assistant/internal/config"
	"github.com/wolfman30/appointment-assistant/internal/observability/metrics"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	rt, err := bootstrap.BuildRuntime(ctx, cfg, awsCfg, logger)
	if err != nil {
		log.Fatalf("failed to build assistant runtime: %v", err)
	}

	// lambda.Start never returns; provider clients are released on shutdown.
	lambda.StartWithOptions(handler(rt.Handler, rt.Pusher, logger),
		lambda.WithEnableSIGTERM(shutdown(rt, logger)),
	)
}

func shutdown(rt io.Closer, logger *logging.Logger) func() {
	return func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to close assistant runtime", "error", err)
		}
		logger.Info("assistant runtime stopped")
	}
}

type transcriptHandler interface {
	Handle(ctx context.Context, event json.RawMessage) ([]assistant.ConversationTurn, error)
}

// handler flushes metrics before returning; the execution environment can be
// frozen right after the response.
func handler(h transcriptHandler, pusher *metrics.Pusher, logger *logging.Logger) func(context.Context, json.RawMessage) ([]assistant.ConversationTurn, error) {
	return func(ctx context.Context, event json.RawMessage) ([]assistant.ConversationTurn, error) {
		turns, err := h.Handle(ctx, event)
		if pushErr := pusher.Push(ctx); pushErr != nil {
			logger.Warn("failed to push metrics", "error", pushErr)
		}
		return turns, err
	}
}
