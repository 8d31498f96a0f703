package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/appointment-assistant/cmd/mainconfig"
	"github.com/wolfman30/appointment-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/appointment-assistant/internal/config"
	"github.com/wolfman30/appointment-assistant/pkg/logging"
)

func main() {
	eventPath := flag.String("event", "", "path to an invocation event JSON file (default: stdin)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall invocation timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	event, err := readEvent(*eventPath, os.Stdin)
	if err != nil {
		log.Fatalf("failed to read event: %v", err)
	}

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	rt, err := bootstrap.BuildRuntime(ctx, cfg, awsCfg, logger)
	if err != nil {
		log.Fatalf("failed to build assistant runtime: %v", err)
	}
	defer rt.Close()

	turns, err := rt.Handler.Handle(ctx, event)
	if err != nil {
		log.Fatalf("invocation failed: %v", err)
	}
	if err := rt.Pusher.Push(ctx); err != nil {
		logger.Warn("failed to push metrics", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(turns); err != nil {
		log.Fatalf("failed to write transcript: %v", err)
	}
}

func readEvent(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("event is not valid JSON")
	}
	return data, nil
}
