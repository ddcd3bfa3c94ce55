package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medical-text2sql-be/internal/bootstrap"
	"medical-text2sql-be/internal/config"
	"medical-text2sql-be/internal/server"
	"medical-text2sql-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Restore conversations from the last run
	if err := container.SessionService.Restore(context.Background()); err != nil {
		log.Printf("[WARN] Conversations not restored: %v", err)
	}

	// 5. Start Background Services
	if err := container.HistoryConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Printf("[WARN] Server shutdown: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := container.SessionService.Persist(ctx); err != nil {
		log.Printf("[WARN] Conversations not saved: %v", err)
	}
}
