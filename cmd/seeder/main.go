// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/db"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/middleware"
)

func main() {
	hashToken := flag.String("hash-token", "", "print the bcrypt hash of an admin token and exit")
	flag.Parse()

	if *hashToken != "" {
		hash, err := middleware.HashToken(*hashToken)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sqlDB, err := db.Open(ctx, cfg.Database, logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format))
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/subscribers.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		if _, err := sqlDB.ExecContext(ctx, string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}
