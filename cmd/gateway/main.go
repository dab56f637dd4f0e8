package main

import (
	"context"
	"log"

	"agri-advisor/internal/bootstrap"
	"agri-advisor/internal/config"
	"agri-advisor/internal/server"
	"agri-advisor/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go container.WebSocketHub.Run()

	if err := container.DispatcherService.Run(context.Background()); err != nil {
		log.Fatalf("Failed to start event dispatcher: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
