// Package main implements the Heimdall deconfliction service: an HTTP API
// over the three-stage trajectory deconfliction engine, with traffic
// ingestion over NATS, a conflict alert WebSocket feed, and MongoDB-backed
// report archival.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PossumXI/Asgard/Heimdall/internal/alertfeed"
	"github.com/PossumXI/Asgard/Heimdall/internal/api"
	"github.com/PossumXI/Asgard/Heimdall/internal/api/handlers"
	"github.com/PossumXI/Asgard/Heimdall/internal/archive"
	"github.com/PossumXI/Asgard/Heimdall/internal/config"
	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
	"github.com/PossumXI/Asgard/Heimdall/internal/missionbus"
	"github.com/PossumXI/Asgard/Heimdall/internal/obsv"
	"github.com/PossumXI/Asgard/Heimdall/internal/tracing"
	"github.com/PossumXI/Asgard/Heimdall/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	engineCfg, svcCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logging.Logger.Info("=== Heimdall deconfliction service ===")

	shutdownTracing, err := tracing.InitTracing(context.Background(), "heimdall")
	if err != nil {
		logging.Logger.Warnf("tracing disabled: %v", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logging.Logger.Warnf("tracing shutdown error: %v", err)
			}
		}()
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		log.Fatalf("failed to construct engine: %v", err)
	}

	var archiveStore *archive.Archive
	archiveStore, err = archive.Connect(svcCfg.MongoURI)
	if err != nil {
		if svcCfg.AllowNoDB {
			logging.Logger.Warnf("archive disabled, continuing without Mongo: %v", err)
			archiveStore = nil
		} else {
			log.Fatalf("failed to connect to Mongo: %v", err)
		}
	} else {
		defer archiveStore.Close(context.Background())
	}

	hub := alertfeed.NewHub()
	go hub.Start()
	defer hub.Stop()

	bus := missionbus.New(eng)
	if err := bus.Connect(svcCfg.NATSURL); err != nil {
		logging.Logger.Warnf("missionbus disabled, continuing without NATS: %v", err)
		bus = nil
	} else {
		if err := bus.Start(); err != nil {
			logging.Logger.Warnf("missionbus failed to start: %v", err)
		}
		defer bus.Stop()
	}

	h := handlers.New(handlers.Deps{
		Engine:  eng,
		Archive: archiveStore,
		Bus:     bus,
		Hub:     hub,
		Metrics: obsv.Global(),
	})

	router := api.NewRouter(h, svcCfg.JWTSecret)
	server := &http.Server{
		Addr:         svcCfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("listening on %s", svcCfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Logger.Info("shutting down heimdall")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Warnf("server shutdown error: %v", err)
	}

	logging.Logger.Info("heimdall stopped")
}
