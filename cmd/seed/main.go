package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/wavedash/arena/backend/internal/database"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users to create")
	flag.IntVar(&opts.Events, "events", opts.Events, "number of events to create")
	flag.IntVar(&opts.Threads, "threads", opts.Threads, "number of forum threads to create")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "number of matchmaking posts to create")
	flag.IntVar(&opts.News, "news", opts.News, "number of news articles to create")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed (0 means random)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	if err := logger.Initialize("info", ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := seed.Run(database.DB, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
