// cmd/server/main.go
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/config"
	"github.com/lasershot/lasershot/internal/connection"
	"github.com/lasershot/lasershot/internal/httpapi"
	"github.com/lasershot/lasershot/internal/lobby"
	"github.com/lasershot/lasershot/internal/scheduler"
	"github.com/lasershot/lasershot/internal/scoring"
	"github.com/lasershot/lasershot/internal/vision"
	"github.com/lasershot/lasershot/internal/ws"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	store := lobby.NewStore(logger)
	store.MatchDuration = cfg.MatchDuration
	store.InactivityTicks = cfg.InactivityTicks
	store.RetentionTicks = cfg.RetentionTicks

	registry := connection.NewRegistry(logger)

	validator := scoring.NewValidator(logger, store)
	validator.BroadcastToTeam = registry.BroadcastToTeam
	validator.Sequence = registry.Sequenced

	detector := vision.NewDetector()
	detector.MinArea = cfg.MinContourArea

	wsHandler := &ws.Handler{
		Log:        logger,
		Store:      store,
		Registry:   registry,
		Validator:  validator,
		Recognizer: detector,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(logger, store, registry)
	sched.Interval = cfg.TickInterval
	go sched.Run(ctx)

	api := &httpapi.Server{Log: logger, Store: store}
	server := &http.Server{
		Handler:      httpapi.SetupRoutes(api, wsHandler.Serve()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}
	logger.WithField("addr", l.Addr().String()).Info("listening")

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.WithError(err).Error("server exited")
	case sig := <-sigs:
		logger.WithField("signal", sig).Info("terminating")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
