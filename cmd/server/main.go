package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"doctrail/internal/document"
	dochandler "doctrail/internal/document/handler"
	docservice "doctrail/internal/document/service"
	"doctrail/internal/history"
	histhandler "doctrail/internal/history/handler"
	"doctrail/internal/notify"
	"doctrail/internal/platform/config"
	"doctrail/internal/platform/httpserver"
	"doctrail/internal/platform/logger"
	"doctrail/internal/platform/metrics"
	"doctrail/internal/platform/middleware"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}

	m := metrics.New()

	docStore := document.NewPostgresStore(db)
	hierarchy := document.NewPostgresHierarchy(db)
	validator := document.NewValidator(hierarchy)

	histStore := history.NewPostgresStore(db)
	trail := history.NewTrail(histStore, log)

	txRunner := newDocumentPostgresTx(db)
	txRunner.timeout = cfg.TxTimeout

	dispatcher := notify.NewLogDispatcher(log)
	lifecycle := docservice.New(txRunner, docStore, validator, trail, dispatcher, log, m)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	dochandler.New(lifecycle, log).Register(router)
	histhandler.New(trail, docStore, log).Register(router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsRouter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting doctrail", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting metrics endpoint", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
