package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygate/internal/gateway"
	"tinygate/pkg/config"
	"tinygate/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	snap, err := gateway.LoadFile(cfg.ConfigFile)
	if err != nil {
		log.Fatalw("configuration invalid, refusing to serve", "file", cfg.ConfigFile, "err", err)
	}
	if snap.DefaultConfig {
		log.Warnw("running with the default config; that's probably not intended", "file", cfg.ConfigFile)
	}

	srv := gateway.NewServer(cfg, log, gateway.NewStore(snap))
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Handler()}

	go func() {
		log.Infow("gateway listening", "addr", cfg.HTTPAddr, "config", cfg.ConfigFile)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// SIGHUP swaps in a freshly validated snapshot; a bad reload keeps the
	// running one.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			next, err := gateway.LoadFile(cfg.ConfigFile)
			if err != nil {
				log.Errorw("reload failed, keeping current configuration", "err", err)
				continue
			}
			srv.Store().Swap(next)
			log.Infow("configuration reloaded", "file", cfg.ConfigFile)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	fmt.Println("gateway stopped")
}
