package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pragyan2004/pneumoscan/api"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction web service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	log.Info("[Main] Starting PneumoScan web service...")

	if cfg.Release {
		log.Info("[Main] Starting gin in release mode!")
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.SentryDSN != "" {
		if err := raven.SetDSN(cfg.SentryDSN); err != nil {
			log.Error("[Main] Couldn't set Sentry DSN: ", err.Error())
		}
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return err
	}

	store := predict.LoadStore(openModel, cfg.ModelPath, cfg.ModelInfoPath)
	defer store.Close()
	log.Info("[Main] Model loaded: ", store.Loaded())

	dispatcher := predict.NewDispatcher(predict.NewPredictor(store), predict.InferenceWorkers, cfg.MaxQueueSize)
	dispatcher.Run()
	defer dispatcher.Stop()

	var cache api.ResultCache
	if cfg.RedisAddress != "" {
		redisCache := api.NewRedisCache(cfg.RedisAddress, cfg.RedisMaxConnections, cfg.ResultTTL)
		defer redisCache.Close()
		if err := redisCache.Ping(); err != nil {
			log.Warn("[Main] Redis not reachable yet: ", err.Error())
		}
		cache = redisCache
	}

	server := api.NewServer(api.Options{
		Store:          store,
		Predictor:      dispatcher,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Statistics:     cfg.Statistics,
		Cache:          cache,
	})

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: server.Router(),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info("[Main] Listening on ", cfg.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-done:
	}

	log.Info("[Main] Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("[Main] Error shutting down HTTP server: ", err.Error())
	}
	return nil
}
