package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/x-ordo/the-landlord-web-client/internal/config"
	"github.com/x-ordo/the-landlord-web-client/internal/devserver"
	"github.com/x-ordo/the-landlord-web-client/internal/logging"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadDevServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load devserver config failed")
	}

	srv := devserver.New(cfg.SeedTargets)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Int("seed_targets", cfg.SeedTargets).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
