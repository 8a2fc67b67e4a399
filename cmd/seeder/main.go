package main

import (
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/trailblaize/outreach-backend/internal/config"
	"github.com/trailblaize/outreach-backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer database.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/sending_lines.sql",
		"seed/contacts.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", file, err)
			os.Exit(1)
		}

		if _, err := database.Exec(string(content)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to execute %s: %v\n", file, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}
