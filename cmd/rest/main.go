package main

import (
	"context"
	"log"

	"telemed-chat-be/internal/bootstrap"
	"telemed-chat-be/internal/config"
	"telemed-chat-be/internal/server"
	"telemed-chat-be/internal/tracer"
	"telemed-chat-be/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Dependency container
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Background consumer (unread counters, audit, NATS events)
	go func() {
		log.Println("Background: starting chat event consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	// 5. HTTP + websocket server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
