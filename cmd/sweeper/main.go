package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"tutorium-be/internal/bootstrap"
	"tutorium-be/internal/config"
	"tutorium-be/pkg/database"
)

// The sweeper binary runs the expiration and warning passes on a timer.
// Multiple instances coordinate through the Redis run lock, so running it
// alongside every web replica is safe.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	container.Sweeper.Start()
	log.Println("Sweeper is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Sweeper.Stop()
	log.Println("Sweeper stopped")
}
