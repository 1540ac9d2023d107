package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voice-satellite-lab/internal/config"
	"github.com/voice-satellite-lab/internal/hub"
	"github.com/voice-satellite-lab/internal/logging"
)

func main() {
	logging.Init()
	defer func() { _ = logging.Sync() }()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.FatalExitf("config load failed", "err", err)
	}

	srv := hub.New(cfg.Hub)
	httpSrv := &http.Server{
		Addr:    cfg.Hub.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logging.Infow("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logging.Warnw("shutdown failed", "err", err)
		}
	}()

	logging.Infow("voice hub listening", "addr", cfg.Hub.ListenAddr, "mode", srv.Mode())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.FatalExitf("hub server failed", "err", err)
	}
	logging.Infow("voice hub stopped")
}
