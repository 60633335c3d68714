package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/crmforge/crmforge/internal/config"
	"github.com/crmforge/crmforge/internal/repository/postgres"
	"github.com/joho/godotenv"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running migrations against %s:%d/%s\n",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	run := postgres.RunMigrations
	if *down {
		run = postgres.RollbackLast
	}

	if err := run(cfg.Database.DSN(), *source); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
}
