package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"visionestoque/internal/config"
	"visionestoque/internal/gcp"
	"visionestoque/internal/security"
	"visionestoque/internal/server"
	"visionestoque/internal/services"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP gateway",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	storageClient, err := gcp.NewStorageClient(ctx, cfg.GCSBucketName, logger)
	if err != nil {
		return err
	}
	defer storageClient.Close()

	vertexClient, err := gcp.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.GeminiModelID)
	if err != nil {
		return err
	}
	defer vertexClient.Close()

	var records services.RecordStore
	if cfg.FirestoreCollection != "" {
		recordStore, err := gcp.NewRecordStore(ctx, cfg.GCPProjectID, cfg.FirestoreCollection)
		if err != nil {
			return err
		}
		defer recordStore.Close()
		records = recordStore
	}

	validator := security.NewValidator(cfg.MaxFileSize, logger)
	extractor := services.NewExtractor(storageClient, vertexClient, records, validator, logger)

	srv := server.New(cfg, logger, extractor)

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("server starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
