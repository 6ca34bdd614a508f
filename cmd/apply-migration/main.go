package main

import (
	"flag"
	"fmt"
	"log"

	"invwe-data/common/database"
	"invwe-data/internal/config"
	dbmigrate "invwe-data/internal/db"
)

// apply-migration [-cmd up|status|down]
func main() {
	cmd := flag.String("cmd", "up", "goose command: up | status | down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer database.Close(db)

	fmt.Printf("Connected to database: %s@%s:%d/%s\n\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	switch *cmd {
	case "up":
		err = dbmigrate.RunMigrations(db)
	case "status":
		err = dbmigrate.MigrationStatus(db)
	case "down":
		err = dbmigrate.RollbackLast(db)
	default:
		log.Fatalf("Unknown command %q", *cmd)
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", *cmd, err)
	}

	fmt.Printf("Migration %s completed successfully\n", *cmd)
}
