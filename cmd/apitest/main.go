// Command apitest runs the API test console from a terminal:
//
//	apitest [flags] health|hello|both
//
// "both" starts /api/health and then /api/hello without waiting, so the
// printed result depends on -ordering and on which response lands last.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/config"
	"github.com/DoyleJ11/gops-apitest/internal/logging"
	"github.com/DoyleJ11/gops-apitest/internal/runner"
	"github.com/DoyleJ11/gops-apitest/internal/state"
	"github.com/DoyleJ11/gops-apitest/internal/view"
)

var errRequestFailed = errors.New("request failed")

func main() {
	err := run(os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errRequestFailed):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "apitest:", err)
		os.Exit(2)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, rest, err := config.Load("apitest", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.New("usage: apitest [flags] health|hello|both")
	}

	var endpoints []apiclient.Endpoint
	if rest[0] == "both" {
		endpoints = []apiclient.Endpoint{apiclient.EndpointHealth, apiclient.EndpointHello}
	} else {
		e, ok := apiclient.ParseEndpoint(rest[0])
		if !ok {
			return fmt.Errorf("unknown endpoint %q", rest[0])
		}
		endpoints = []apiclient.Endpoint{e}
	}

	ordering, err := runner.ParseOrdering(cfg.Ordering)
	if err != nil {
		return err
	}

	// diagnostics go to stderr, the rendered view to stdout
	cfg.Logs.Style = "console"
	log, err := logging.New(cfg.Logs)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(ctx, apiclient.NewClient(apiclient.Config{BaseURL: cfg.BaseURL}), runner.Options{
		Session:        "cli",
		Ordering:       ordering,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})
	defer func() { r.Inbox() <- runner.Shutdown{} }()

	for _, e := range endpoints {
		seq := r.Fetch(e)
		log.Debug("request started", zap.String("endpoint", string(e)), zap.Uint64("seq", seq))
	}

	snap, err := r.Settle(ctx)
	if err != nil {
		return err
	}
	if err := view.RenderText(stdout, snap.State); err != nil {
		return err
	}
	if snap.State.Kind() == state.KindError {
		return errRequestFailed
	}
	return nil
}
