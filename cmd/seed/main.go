// Command main fills the CivicHub database with demo data.
package main

import (
	"flag"
	"log"
	"time"

	"civichub/internal/config"
	"civichub/internal/database"
	"civichub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numIssues := flag.Int("issues", 40, "Number of issues to create")
	maxComments := flag.Int("comments", 5, "Maximum comments per issue")
	maxDays := flag.Int("days", 60, "Spread posting dates over this many past days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	demoAdmin := flag.Bool("admin", true, "Make the first user the demo_admin account")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Faker seed for reproducible data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d issues, clean=%v\n", *numUsers, *numIssues, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)
	if _, err := s.Run(seed.Options{
		Users:            *numUsers,
		Issues:           *numIssues,
		MaxComments:      *maxComments,
		MaxDays:          *maxDays,
		Clean:            *shouldClean,
		IncludeDemoAdmin: *demoAdmin,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DemoPassword)
}
