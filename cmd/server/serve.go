package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/handlers"
	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the model and start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logrus.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()

	// A failed load keeps the server up; inference endpoints then answer 500.
	classifier, err := model.Load(loadOptions(cfg, m))
	if err != nil {
		logrus.WithError(err).WithField("path", cfg.ModelPath).Error("Error loading model")
		m.SetModelLoaded(false)
		classifier = nil
	} else {
		defer classifier.Close()
	}

	handler := handlers.NewHandler(classifier, cfg.MaxUploadBytes())
	router := handlers.NewRouter(handler, handlers.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"model_loaded": classifier != nil,
	}).Info("Starting Plant Disease Prediction API")
	logrus.Info("Endpoints:")
	logrus.Info("  GET  /              - Home")
	logrus.Info("  GET  /api/health    - Health check")
	logrus.Info("  GET  /api/classes   - Get all classes")
	logrus.Info("  POST /api/predict   - Predict disease (multipart field \"image\")")
	logrus.Info("  GET  /metrics       - Prometheus metrics")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
