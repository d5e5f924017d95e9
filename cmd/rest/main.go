package main

import (
	"context"
	"log"

	"tutorium-be/internal/bootstrap"
	"tutorium-be/internal/config"
	"tutorium-be/internal/server"
	"tutorium-be/internal/tracer"
	"tutorium-be/pkg/database"
)

func main() {
	// 0. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Background workers: outbox dispatcher and delivery consumer.
	// The sweeper runs as its own binary (cmd/sweeper) so web replicas
	// can scale independently of it.
	if err := container.Consumer.Start(context.Background()); err != nil {
		log.Printf("Background consumer error: %v", err)
	}
	container.Dispatcher.Start()

	// 5. Serve
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
