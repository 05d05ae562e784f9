// Command devbackend serves a local stand-in for the Spring Boot API on :8080.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/devbackend"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	handler, err := devbackend.NewRouter(devbackend.Options{Logger: log})
	if err != nil {
		log.Fatal("build router", zap.Error(err))
	}

	srv := &http.Server{Addr: *addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	log.Info("dev backend listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
