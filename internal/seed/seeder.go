// Package seed fills a development database with plausible community data.
package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/views"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// gameRoster is the fixed set of games seeded into every environment
var gameRoster = []models.Game{
	{Name: "Street Fighter 6", Slug: "sf6", Developer: "Capcom"},
	{Name: "Tekken 8", Slug: "tekken-8", Developer: "Bandai Namco"},
	{Name: "Guilty Gear Strive", Slug: "ggst", Developer: "Arc System Works"},
	{Name: "The King of Fighters XV", Slug: "kof-xv", Developer: "SNK"},
	{Name: "Mortal Kombat 1", Slug: "mk1", Developer: "NetherRealm"},
	{Name: "Soulcalibur VI", Slug: "sc6", Developer: "Bandai Namco"},
}

var regions = []string{"NA-East", "NA-West", "EU", "JP", "BR", "SEA"}

// Options controls how much data Run generates
type Options struct {
	Users   int
	Events  int
	Threads int
	Posts   int
	News    int
	Seed    uint64
}

// DefaultOptions returns a data set sized for local development
func DefaultOptions() Options {
	return Options{
		Users:   50,
		Events:  20,
		Threads: 30,
		Posts:   15,
		News:    10,
		Seed:    0,
	}
}

// Run populates db with the game roster plus fake users, events, threads,
// matchmaking posts, news, follows, and view history
func Run(db *gorm.DB, opts Options) error {
	faker := gofakeit.New(opts.Seed)

	games, err := seedGames(db)
	if err != nil {
		return fmt.Errorf("seed games: %w", err)
	}

	users, err := seedUsers(db, faker, opts.Users, games)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	if err := seedEvents(db, faker, opts.Events, users, games); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	if err := seedThreads(db, faker, opts.Threads, users, games); err != nil {
		return fmt.Errorf("seed threads: %w", err)
	}
	if err := seedMatchmaking(db, faker, opts.Posts, users, games); err != nil {
		return fmt.Errorf("seed matchmaking: %w", err)
	}
	if err := seedNews(db, faker, opts.News, users, games); err != nil {
		return fmt.Errorf("seed news: %w", err)
	}
	if err := seedFollows(db, faker, users); err != nil {
		return fmt.Errorf("seed follows: %w", err)
	}
	if err := seedViews(db, faker, users); err != nil {
		return fmt.Errorf("seed views: %w", err)
	}

	logger.Log.Info("seed complete",
		zap.Int("users", opts.Users),
		zap.Int("events", opts.Events),
		zap.Int("threads", opts.Threads),
	)
	return nil
}

func seedGames(db *gorm.DB) ([]models.Game, error) {
	games := make([]models.Game, 0, len(gameRoster))
	for _, game := range gameRoster {
		g := game
		if err := db.Where("slug = ?", g.Slug).FirstOrCreate(&g).Error; err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func seedUsers(db *gorm.DB, faker *gofakeit.Faker, count int, games []models.Game) ([]models.User, error) {
	// One shared hash keeps seeding fast; every seeded account logs in with
	// "password123"
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	password := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(faker.Gamertag()), i)
		mainGame := games[faker.IntRange(0, len(games)-1)].ID
		user := models.User{
			Email:        fmt.Sprintf("%s@example.com", username),
			Username:     username,
			DisplayName:  faker.Gamertag(),
			Bio:          faker.Sentence(8),
			Region:       regions[faker.IntRange(0, len(regions)-1)],
			PasswordHash: &password,
			MainGameID:   &mainGame,
			IsPrivate:    faker.IntRange(0, 9) < 2,
			IsModerator:  i == 0,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func seedEvents(db *gorm.DB, faker *gofakeit.Faker, count int, users []models.User, games []models.Game) error {
	for i := 0; i < count; i++ {
		// Spread events across the past, present, and future
		start := time.Now().UTC().Add(time.Duration(faker.IntRange(-14, 30)) * 24 * time.Hour)
		event := models.Event{
			Title:          fmt.Sprintf("%s %s", faker.City(), "Throwdown"),
			Description:    faker.Sentence(12),
			Location:       faker.City(),
			IsOnline:       faker.Bool(),
			GameID:         games[faker.IntRange(0, len(games)-1)].ID,
			OrganizerID:    users[faker.IntRange(0, len(users)-1)].ID,
			StartAt:        start,
			EndAt:          start.Add(time.Duration(faker.IntRange(3, 12)) * time.Hour),
			StatusOverride: models.EventStatusAuto,
		}
		if err := db.Create(&event).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedThreads(db *gorm.DB, faker *gofakeit.Faker, count int, users []models.User, games []models.Game) error {
	for i := 0; i < count; i++ {
		gameID := games[faker.IntRange(0, len(games)-1)].ID
		thread := models.ForumThread{
			AuthorID: users[faker.IntRange(0, len(users)-1)].ID,
			GameID:   &gameID,
			Title:    faker.Sentence(6),
			Body:     faker.Paragraph(2, 4, 10, " "),
		}
		if err := db.Create(&thread).Error; err != nil {
			return err
		}

		replies := faker.IntRange(0, 6)
		for j := 0; j < replies; j++ {
			reply := models.ForumReply{
				ThreadID: thread.ID,
				AuthorID: users[faker.IntRange(0, len(users)-1)].ID,
				Body:     faker.Sentence(12),
			}
			if err := db.Create(&reply).Error; err != nil {
				return err
			}
		}
		if replies > 0 {
			if err := db.Model(&thread).UpdateColumn("reply_count", replies).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedMatchmaking(db *gorm.DB, faker *gofakeit.Faker, count int, users []models.User, games []models.Game) error {
	platforms := []string{"PC", "PS5", "Xbox"}
	for i := 0; i < count; i++ {
		post := models.MatchmakingPost{
			AuthorID:  users[faker.IntRange(0, len(users)-1)].ID,
			GameID:    games[faker.IntRange(0, len(games)-1)].ID,
			Region:    regions[faker.IntRange(0, len(regions)-1)],
			Platform:  platforms[faker.IntRange(0, len(platforms)-1)],
			Message:   faker.Sentence(10),
			ExpiresAt: time.Now().UTC().Add(time.Duration(faker.IntRange(1, 24)) * time.Hour),
		}
		if err := db.Create(&post).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedNews(db *gorm.DB, faker *gofakeit.Faker, count int, users []models.User, games []models.Game) error {
	for i := 0; i < count; i++ {
		title := faker.Sentence(7)
		publishedAt := time.Now().UTC().Add(-time.Duration(faker.IntRange(1, 60)) * 24 * time.Hour)
		gameID := games[faker.IntRange(0, len(games)-1)].ID
		article := models.NewsArticle{
			AuthorID:    users[0].ID, // the seeded moderator
			GameID:      &gameID,
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", slugify(title), i),
			Summary:     faker.Sentence(14),
			Body:        faker.Paragraph(3, 5, 12, "\n\n"),
			PublishedAt: &publishedAt,
		}
		if err := db.Create(&article).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedFollows(db *gorm.DB, faker *gofakeit.Faker, users []models.User) error {
	for i := range users {
		follows := faker.IntRange(0, 8)
		seen := map[int]bool{i: true}
		for j := 0; j < follows; j++ {
			target := faker.IntRange(0, len(users)-1)
			if seen[target] {
				continue
			}
			seen[target] = true

			if users[target].IsPrivate {
				request := models.FollowRequest{
					RequesterID: users[i].ID,
					TargetID:    users[target].ID,
					Status:      models.FollowRequestStatusPending,
				}
				if err := db.Create(&request).Error; err != nil {
					return err
				}
				continue
			}

			follow := models.Follow{FollowerID: users[i].ID, FolloweeID: users[target].ID}
			if err := db.Create(&follow).Error; err != nil {
				return err
			}
			if err := db.Model(&models.User{}).Where("id = ?", users[i].ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
				return err
			}
			if err := db.Model(&models.User{}).Where("id = ?", users[target].ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedViews(db *gorm.DB, faker *gofakeit.Faker, users []models.User) error {
	var articles []models.NewsArticle
	if err := db.Find(&articles).Error; err != nil {
		return err
	}

	for _, article := range articles {
		viewers := faker.IntRange(3, 20)
		for j := 0; j < viewers; j++ {
			viewer := users[faker.IntRange(0, len(users)-1)]
			viewedAt := time.Now().UTC().Add(-time.Duration(faker.IntRange(0, 72)) * time.Hour)
			agent := faker.UserAgent()
			view := models.ViewEvent{
				ContentID:      article.ID,
				ContentType:    models.ContentTypeNews,
				ViewerIdentity: viewer.ID,
				UserAgent:      agent,
				DedupHash:      views.DedupHash(article.ID, models.ContentTypeNews, viewer.ID, agent),
				WindowBucket:   viewedAt.Unix() / 900,
				ViewedAt:       viewedAt,
			}
			// Random viewer picks can collide inside a window; skip duplicates
			if err := db.Create(&view).Error; err != nil {
				if strings.Contains(err.Error(), "UNIQUE") ||
					strings.Contains(err.Error(), "duplicate key") {
					continue
				}
				return err
			}
		}
	}
	return nil
}

func slugify(title string) string {
	slug := strings.ToLower(title)
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
