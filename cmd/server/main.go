package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/config"
	"github.com/DoyleJ11/gops-apitest/internal/history"
	"github.com/DoyleJ11/gops-apitest/internal/httpapi"
	"github.com/DoyleJ11/gops-apitest/internal/hub"
	"github.com/DoyleJ11/gops-apitest/internal/logging"
	"github.com/DoyleJ11/gops-apitest/internal/runner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := config.Load("apitest-server", os.Args[1:])
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logs)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store    *history.Store
		recorder runner.Recorder
		lister   httpapi.AttemptLister
	)
	if cfg.DatabaseURL != "" {
		store, err = history.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		recorder, lister = store, store
		log.Info("attempt log enabled")
	}

	ordering, err := runner.ParseOrdering(cfg.Ordering)
	if err != nil {
		return err
	}
	client := apiclient.NewClient(apiclient.Config{BaseURL: cfg.BaseURL})

	// Mount one runner per console session. The hub outlives the signal
	// context so requests still draining during shutdown get answers.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	h := hub.NewHub(hubCtx, func(ctx context.Context, code string) *runner.Runner {
		return runner.New(ctx, client, runner.Options{
			Session:        code,
			Ordering:       ordering,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         log,
			Recorder:       recorder,
		})
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.SetupRoutes(h, httpapi.Options{Logger: log, History: lister}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("api", client.BaseURL()),
			zap.String("ordering", string(ordering)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		err = multierr.Append(err, h.Shutdown(shutdownCtx))
		if store != nil {
			err = multierr.Append(err, store.Close())
		}
		return err
	})

	err = g.Wait()
	log.Info("server closed", zap.Error(err))
	return err
}
