// Command backfill publishes a file of reading batches onto the ingest topic.
// The file holds a JSON array of batch payloads in the same shape the
// consumer accepts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"example.com/biometrics/internal/backfill"
	"example.com/biometrics/internal/config"
	"example.com/biometrics/internal/logging"
)

func main() {
	var (
		file     = flag.String("file", "", "path to a JSON array of batch payloads")
		deviceID = flag.String("device", "", "device id to stamp on every batch (overrides payload)")
	)
	flag.Parse()

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "biometrics-backfill")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if *file == "" {
		logger.Fatal("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("read input", zap.Error(err))
	}

	var batches []json.RawMessage
	if err := json.Unmarshal(raw, &batches); err != nil {
		logger.Fatal("input must be a JSON array of batch payloads", zap.Error(err))
	}

	publisher := backfill.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	ctx := context.Background()
	for i, batch := range batches {
		key := *deviceID
		if key == "" {
			var envelope struct {
				DeviceID string `json:"device_id"`
			}
			_ = json.Unmarshal(batch, &envelope)
			key = envelope.DeviceID
		}
		if err := publisher.Publish(ctx, cfg.BatchTopic, key, batch); err != nil {
			logger.Fatal("publish failed", zap.Int("batch", i), zap.Error(err))
		}
	}

	logger.Info("backfill published",
		zap.Int("batches", len(batches)),
		zap.String("topic", cfg.BatchTopic))
}
