package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"legaldoc-pipeline/internal/config"
	"legaldoc-pipeline/internal/store"
)

// migrate bootstraps the Postgres relational schema (documents, chunks,
// query_logs, user_usage) C15 depends on.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	relational, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer relational.Close()

	if err := relational.InitSchema(context.Background()); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	fmt.Println("Schema migration completed successfully!")
}
