package main

import (
	"context"
	"flag"
	"log"
	"time"

	"medical-text2sql-be/internal/config"
	"medical-text2sql-be/internal/model"
	"medical-text2sql-be/internal/repository/implementation"
	"medical-text2sql-be/pkg/database"
)

func main() {
	retention := flag.Duration("retention", 0, "delete query history older than this (0 keeps everything)")
	flag.Parse()

	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.HistoryDSN == "" {
		log.Fatal("Error: HISTORY_DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(database.KindPostgres, cfg.Database.HistoryDSN)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.QueryHistory{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	if *retention > 0 {
		cutoff := time.Now().Add(-*retention)
		log.Printf("Step 3: Deleting query history older than %s...", cutoff.Format(time.RFC3339))
		n, err := implementation.NewQueryHistoryRepository(db).DeleteOlderThan(context.Background(), cutoff)
		if err != nil {
			log.Fatalf("Error: Cleanup failed: %v", err)
		}
		log.Printf("Deleted %d rows", n)
	}

	log.Println("Success: Database migration completed.")
}
