package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"uavmonitor/packages/auth"
	"uavmonitor/packages/config"
	"uavmonitor/packages/cors"
	"uavmonitor/packages/geosearch"
	"uavmonitor/packages/handlers"
	"uavmonitor/packages/ingest"
	"uavmonitor/packages/logger"
	"uavmonitor/packages/mongodb"
	"uavmonitor/packages/parsing/flight"
	"uavmonitor/packages/regions"
	"uavmonitor/packages/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsDev)
	if err != nil {
		os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongodb connection failed", logger.Error(err))
	}
	defer client.Disconnect(ctx)
	log.Info("connected to MongoDB")

	flightsCollection := mongodb.Collection(client, cfg.MongoDB, "uav_flights")
	regionsCollection := mongodb.Collection(client, cfg.MongoDB, "regions")
	uploadsCollection := mongodb.Collection(client, cfg.MongoDB, "upload_files")

	regionStore := regions.NewStore(regionsCollection)
	uploadStore := uploads.NewStore(uploadsCollection)
	if err := regionStore.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create region indexes", logger.Error(err))
	}

	ingestor := ingest.New(
		flightsCollection,
		regionStore,
		flight.NewBuilder(cfg.DefaultTimezone),
		geosearch.New(regionsCollection),
		log.Named("ingest"),
		cfg.BatchSize,
	)

	a := auth.New(cfg.KeycloakURL, cfg.KeycloakClientID, cfg.KeycloakDevMode, cfg.IsDev)

	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.CORS(cfg.FrontURLs))

	h := handlers.New(flightsCollection, regionStore, uploadStore, ingestor, a, log.Named("http"), cfg.MaxUploadSize)
	handlers.RegisterRoutes(router, h)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Info("server listening", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", logger.Error(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown was not clean", logger.Error(err))
	}
}
