package database

import (
	"fmt"
	"os"
	"time"

	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "arena")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := gormlogger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("Database connected")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.Notification{},
		&models.Report{},
		&models.Event{},
		&models.ForumThread{},
		&models.ForumReply{},
		&models.MatchmakingPost{},
		&models.NewsArticle{},
		&models.ChatMessage{},
		&models.ViewEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes creates indexes AutoMigrate cannot express
func createIndexes() error {
	// Case-insensitive user lookup
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")

	// View lookups by content within a time window
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_view_events_content_viewed ON view_events (content_type, content_id, viewed_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_view_events_hash_viewed ON view_events (dedup_hash, viewed_at DESC)")

	// Event listings
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_events_game_start ON events (game_id, start_at)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_events_start ON events (start_at DESC)")

	// Forum listings
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_forum_threads_game_created ON forum_threads (game_id, created_at DESC)")

	// Matchmaking board queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_matchmaking_game_region ON matchmaking_posts (game_id, region, expires_at)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
