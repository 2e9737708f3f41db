package main

import (
	"context"
	"document-access/internal/config"
	"document-access/internal/infrastructure/database"
	"flag"
	"fmt"
	"log"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	switch *action {
	case "up":
		err = database.Migrate(db)
	case "down":
		err = database.MigrateDown(db)
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Println("migration done successfully")
}
