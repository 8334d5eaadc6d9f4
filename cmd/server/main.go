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

	"github.com/joho/godotenv"

	"space-video-pipeline/assembly"
	"space-video-pipeline/config"
	"space-video-pipeline/fetcher"
	"space-video-pipeline/logging"
	"space-video-pipeline/media"
	"space-video-pipeline/newscache"
	"space-video-pipeline/publish"
	"space-video-pipeline/scraper"
	"space-video-pipeline/server"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := logging.New("server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	scr := scraper.New(cfg.Sources, cfg.Cache.PageSize, log.With("component", "scraper"))
	cache := newscache.New(scr, cfg.Cache.TTL, cfg.Cache.PageSize, log.With("component", "newscache"))
	fetch := fetcher.New(log.With("component", "fetcher"))
	asm := assembly.New(cfg.Video, log.With("component", "assembly"))

	var pub server.Publisher
	if p, err := publish.New(ctx, log.With("component", "publish")); err != nil {
		log.Warn("publishing disabled", "err", err)
	} else {
		pub = p
	}

	var images server.ImageSearcher
	if key := config.OptionalCredential("PEXELS_API_KEY", ""); key != "" {
		images = media.NewPexels(key, "")
	} else {
		log.Warn("image search disabled: PEXELS_API_KEY not set")
	}

	srv := server.New(cfg, cache, fetch, asm, pub, images, log)

	httpServer := &http.Server{
		Addr:              cfg.Server.BindAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute, // /process muxes and uploads video
	}

	go func() {
		log.Info("server starting", "addr", cfg.Server.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
}
