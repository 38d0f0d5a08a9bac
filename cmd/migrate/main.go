package main

import (
	"fmt"
	"log"
	"os"

	"sms-dispatch/internal/adapters/db/postgres"
	"sms-dispatch/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	conf := config.FromEnv()

	fmt.Println("🔗 Connecting to database...")
	fmt.Println("Driver:", conf.DatabaseDriver)

	store, err := postgres.Open(conf.DatabaseDriver, conf.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	defer store.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println("🔄 Running migrations...")

	if err := store.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	fmt.Println("✅ Migration complete!")
	fmt.Println("")
	fmt.Println("📊 Checking tables...")

	missing := 0
	for _, table := range postgres.Tables() {
		if store.HasTable(table) {
			fmt.Printf("  - %s\n", table)
			continue
		}
		fmt.Printf("⚠️  %s not found\n", table)
		missing++
	}
	if missing > 0 {
		os.Exit(1)
	}

	fmt.Println("")
	fmt.Println("🎉 Database ready!")
}
