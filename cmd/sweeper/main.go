package main

import (
	"document-access/internal/app"
	"document-access/internal/config"
	"log"
)

// sweeper is meant for cron: it mails queued grant notices and expiry
// warnings once and exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Sweep(cfg); err != nil {
		log.Fatal(err)
	}
}
