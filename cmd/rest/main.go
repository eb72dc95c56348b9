package main

import (
	"context"
	"log"

	"athleticare-be/internal/bootstrap"
	"athleticare-be/internal/config"
	"athleticare-be/internal/server"
	"athleticare-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	color.Cyan("AthletiCare AI backend")
	color.Green("Listening on port %s (%s)", cfg.App.Port, cfg.App.Environment)

	// 6. Run Server
	log.Fatal(srv.Run())
}
