package main

import (
	"flag"
	"log"

	"github.com/damoang/qna-revision/internal/config"
	"github.com/damoang/qna-revision/internal/database"
	"github.com/damoang/qna-revision/internal/migration"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "config file path")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if files := config.LoadDotEnv("."); len(files) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *verbose {
		cfg.Database.LogLevel = "info"
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrated %d tables on %s", len(migration.Models()), cfg.Database.Driver)
}
