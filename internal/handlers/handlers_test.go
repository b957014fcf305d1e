package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/wavedash/arena/backend/internal/auth"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/middleware"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type HandlersSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	h      *Handlers
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(logger.Initialize("error", filepath.Join(s.T().TempDir(), "test.log")))
}

func (s *HandlersSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.Notification{},
		&models.Event{},
		&models.ViewEvent{},
		&models.ForumThread{},
		&models.ForumReply{},
		&models.MatchmakingPost{},
		&models.NewsArticle{},
		&models.Report{},
	))
	s.db = db
	s.h = New(db, auth.NewService([]byte("test-secret")), nil, nil)
	s.router = s.buildRouter()
}

// stubAuth loads the user named by X-User-ID into the context, standing in
// for the JWT middleware
func (s *HandlersSuite) stubAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			var user models.User
			if err := s.db.First(&user, "id = ?", userID).Error; err == nil {
				c.Set("user", &user)
				c.Set("user_id", user.ID)
			}
		}
		c.Next()
	}
}

func requireStubAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user"); !exists {
			util.RespondUnauthorized(c)
			c.Abort()
		}
	}
}

func (s *HandlersSuite) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(s.stubAuth())

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", s.h.Register)
		api.POST("/auth/login", s.h.Login)

		api.POST("/views/track", s.h.TrackView)

		api.GET("/events", s.h.ListEvents)
		api.GET("/events/:id", s.h.GetEvent)
		api.GET("/users/:id", s.h.GetUser)

		authed := api.Group("", requireStubAuth())
		{
			authed.GET("/me", s.h.Me)
			authed.GET("/views/:type/:id/stats", s.h.GetViewStats)
			authed.POST("/events", s.h.CreateEvent)
			authed.PUT("/events/:id/status", s.h.UpdateEventStatus)

			authed.POST("/users/:id/follow", s.h.FollowUser)
			authed.DELETE("/users/:id/follow", s.h.UnfollowUser)
			authed.GET("/users/:id/relationship", s.h.GetRelationship)

			authed.GET("/follow-requests", s.h.ListFollowRequests)
			authed.GET("/follow-requests/count", s.h.CountFollowRequests)
			authed.POST("/follow-requests/:id/accept", s.h.AcceptFollowRequest)
			authed.POST("/follow-requests/:id/reject", s.h.RejectFollowRequest)
			authed.DELETE("/follow-requests/:id", s.h.CancelFollowRequest)

			authed.POST("/forum/threads", s.h.CreateThread)
			authed.POST("/forum/threads/:id/replies", s.h.CreateReply)

			authed.GET("/notifications/unread-count", s.h.UnreadNotificationCount)
		}
		api.GET("/forum/threads/:id", s.h.GetThread)
	}

	return r
}

func (s *HandlersSuite) createUser(username string, private bool) *models.User {
	user := &models.User{
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		IsPrivate:   private,
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *HandlersSuite) createGame(name, slug string) *models.Game {
	game := &models.Game{Name: name, Slug: slug}
	s.Require().NoError(s.db.Create(game).Error)
	return game
}

func (s *HandlersSuite) request(method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersSuite) TestRegisterAndLogin() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "ryu@example.com",
		"username": "ryu",
		"password": "hadouken1",
	}, "")
	s.Equal(http.StatusCreated, w.Code)

	var created AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.NotEmpty(created.Token)
	s.Equal("ryu", created.User.Username)

	w = s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "ryu@example.com",
		"password": "hadouken1",
	}, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "ryu@example.com",
		"password": "shoryuken",
	}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	// Duplicate username
	w = s.request(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "other@example.com",
		"username": "ryu",
		"password": "hadouken1",
	}, "")
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersSuite) TestTrackViewDeduplicates() {
	user := s.createUser("viewer", false)

	body := gin.H{"content_id": "news-1", "content_type": "news"}
	w := s.request(http.MethodPost, "/api/v1/views/track", body, user.ID)
	s.Equal(http.StatusNoContent, w.Code)

	// Identical view inside the window collapses; the response is the same
	w = s.request(http.MethodPost, "/api/v1/views/track", body, user.ID)
	s.Equal(http.StatusNoContent, w.Code)

	var count int64
	s.Require().NoError(s.db.Model(&models.ViewEvent{}).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *HandlersSuite) TestTrackViewAnonymous() {
	// No account, no cookie: identity falls back to the client IP
	w := s.request(http.MethodPost, "/api/v1/views/track",
		gin.H{"content_id": "event-9", "content_type": "event"}, "")
	s.Equal(http.StatusNoContent, w.Code)

	var view models.ViewEvent
	s.Require().NoError(s.db.First(&view).Error)
	s.NotEmpty(view.ViewerIdentity)
}

func (s *HandlersSuite) TestTrackViewAnonCookie() {
	body, err := json.Marshal(gin.H{"content_id": "news-7", "content_type": "news"})
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/views/track", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "anon_id", Value: "browser-token-1"})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)

	var view models.ViewEvent
	s.Require().NoError(s.db.First(&view).Error)
	s.Equal("browser-token-1", view.ViewerIdentity)
}

func (s *HandlersSuite) TestTrackViewRejectsUnknownType() {
	w := s.request(http.MethodPost, "/api/v1/views/track",
		gin.H{"content_id": "x", "content_type": "banana"}, "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersSuite) TestViewStats() {
	user := s.createUser("viewer", false)
	body := gin.H{"content_id": "news-1", "content_type": "news"}
	w := s.request(http.MethodPost, "/api/v1/views/track", body, user.ID)
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.request(http.MethodGet, "/api/v1/views/news/news-1/stats", nil, user.ID)
	s.Equal(http.StatusOK, w.Code)

	var stats struct {
		TotalViews    int64 `json:"total_views"`
		UniqueViewers int64 `json:"unique_viewers"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	s.EqualValues(1, stats.TotalViews)
	s.EqualValues(1, stats.UniqueViewers)

	w = s.request(http.MethodGet, "/api/v1/views/news/news-1/stats?period=year", nil, user.ID)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	// Raw recent rows carry viewer identities; no anonymous access
	w = s.request(http.MethodGet, "/api/v1/views/news/news-1/stats", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersSuite) TestCreateAndGetEvent() {
	organizer := s.createUser("organizer", false)
	game := s.createGame("Street Fighter 6", "sf6")

	start := time.Now().UTC().Add(72 * time.Hour)
	w := s.request(http.MethodPost, "/api/v1/events", gin.H{
		"title":    "Weekly Ranbats",
		"game_id":  game.ID,
		"start_at": start,
		"end_at":   start.Add(4 * time.Hour),
	}, organizer.ID)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created EventResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Equal(models.EventStatusUpcoming, created.Status)
	s.Contains(created.StatusDescription, "Starting in")

	w = s.request(http.MethodGet, "/api/v1/events/"+created.ID, nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersSuite) TestListEventsStatusFilterPaginates() {
	organizer := s.createUser("organizer", false)
	game := s.createGame("Street Fighter 6", "sf6")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		end := now.Add(-time.Duration(i+1) * 24 * time.Hour)
		s.Require().NoError(s.db.Create(&models.Event{
			Title:          fmt.Sprintf("Past %d", i),
			GameID:         game.ID,
			OrganizerID:    organizer.ID,
			StartAt:        end.Add(-4 * time.Hour),
			EndAt:          end,
			StatusOverride: models.EventStatusAuto,
		}).Error)
	}
	start := now.Add(48 * time.Hour)
	s.Require().NoError(s.db.Create(&models.Event{
		Title:          "Future",
		GameID:         game.ID,
		OrganizerID:    organizer.ID,
		StartAt:        start,
		EndAt:          start.Add(4 * time.Hour),
		StatusOverride: models.EventStatusAuto,
	}).Error)
	// Cancelled override beats past dates
	s.Require().NoError(s.db.Create(&models.Event{
		Title:          "Called Off",
		GameID:         game.ID,
		OrganizerID:    organizer.ID,
		StartAt:        now.Add(-48 * time.Hour),
		EndAt:          now.Add(-44 * time.Hour),
		StatusOverride: models.EventStatusCancelled,
	}).Error)

	// The upcoming event sorts last by start_at; a one-row page must still
	// find it rather than returning an empty page of filtered-out rows
	w := s.request(http.MethodGet, "/api/v1/events?status=upcoming&limit=1", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var listing struct {
		Events []EventResponse `json:"events"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listing))
	s.Require().Len(listing.Events, 1)
	s.Equal("Future", listing.Events[0].Title)

	w = s.request(http.MethodGet, "/api/v1/events?status=completed", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	listing.Events = nil
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listing))
	s.Len(listing.Events, 3)

	w = s.request(http.MethodGet, "/api/v1/events?status=cancelled", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	listing.Events = nil
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listing))
	s.Require().Len(listing.Events, 1)
	s.Equal("Called Off", listing.Events[0].Title)

	w = s.request(http.MethodGet, "/api/v1/events?status=banana", nil, "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersSuite) TestUpdateEventStatus() {
	organizer := s.createUser("organizer", false)
	bystander := s.createUser("bystander", false)
	game := s.createGame("Tekken 8", "tekken-8")

	start := time.Now().UTC().Add(24 * time.Hour)
	event := models.Event{
		Title:          "Local Gathering",
		GameID:         game.ID,
		OrganizerID:    organizer.ID,
		StartAt:        start,
		EndAt:          start.Add(6 * time.Hour),
		StatusOverride: models.EventStatusAuto,
	}
	s.Require().NoError(s.db.Create(&event).Error)

	// Only organizer or moderator
	w := s.request(http.MethodPut, "/api/v1/events/"+event.ID+"/status",
		gin.H{"status": "cancelled"}, bystander.ID)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPut, "/api/v1/events/"+event.ID+"/status",
		gin.H{"status": "cancelled"}, organizer.ID)
	s.Require().Equal(http.StatusOK, w.Code)

	var updated EventResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Equal(models.EventStatusCancelled, updated.Status)
	s.Equal("Event cancelled", updated.StatusDescription)

	w = s.request(http.MethodPut, "/api/v1/events/"+event.ID+"/status",
		gin.H{"status": "banana"}, organizer.ID)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersSuite) TestUpdateEventStatusPastGracePeriod() {
	organizer := s.createUser("organizer", false)
	game := s.createGame("Guilty Gear Strive", "ggst")

	end := time.Now().UTC().Add(-72 * time.Hour)
	event := models.Event{
		Title:          "Long Finished",
		GameID:         game.ID,
		OrganizerID:    organizer.ID,
		StartAt:        end.Add(-4 * time.Hour),
		EndAt:          end,
		StatusOverride: models.EventStatusAuto,
	}
	s.Require().NoError(s.db.Create(&event).Error)

	w := s.request(http.MethodPut, "/api/v1/events/"+event.ID+"/status",
		gin.H{"status": "cancelled"}, organizer.ID)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersSuite) TestFollowFlowPublic() {
	alice := s.createUser("alice", false)
	bob := s.createUser("bob", false)

	w := s.request(http.MethodPost, "/api/v1/users/"+bob.ID+"/follow", nil, alice.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "following")

	w = s.request(http.MethodGet, "/api/v1/users/"+bob.ID+"/relationship", nil, alice.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	var rel struct {
		Status    string `json:"status"`
		Following bool   `json:"following"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &rel))
	s.Equal("following", rel.Status)
	s.True(rel.Following)

	w = s.request(http.MethodDelete, "/api/v1/users/"+bob.ID+"/follow", nil, alice.ID)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlersSuite) TestFollowRequestFlowPrivate() {
	alice := s.createUser("alice", false)
	priv := s.createUser("privateperson", true)

	w := s.request(http.MethodPost, "/api/v1/users/"+priv.ID+"/follow", nil, alice.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "request_sent")

	w = s.request(http.MethodGet, "/api/v1/follow-requests", nil, priv.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	var listing struct {
		Requests []models.FollowRequest `json:"requests"`
		Count    int                    `json:"count"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listing))
	s.Require().Equal(1, listing.Count)

	w = s.request(http.MethodGet, "/api/v1/follow-requests/count", nil, priv.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"count":1}`, w.Body.String())

	requestID := listing.Requests[0].ID
	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+requestID+"/accept", nil, priv.ID)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/users/"+priv.ID+"/relationship", nil, alice.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "following")

	// Accepting again is a 404; the request is no longer pending
	w = s.request(http.MethodPost, "/api/v1/follow-requests/"+requestID+"/accept", nil, priv.ID)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersSuite) TestForumReplyNotifies() {
	author := s.createUser("author", false)
	replier := s.createUser("replier", false)

	w := s.request(http.MethodPost, "/api/v1/forum/threads", gin.H{
		"title": "Frame data thread",
		"body":  "Post your findings here",
	}, author.ID)
	s.Require().Equal(http.StatusCreated, w.Code)

	var thread models.ForumThread
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &thread))

	w = s.request(http.MethodPost, "/api/v1/forum/threads/"+thread.ID+"/replies",
		gin.H{"body": "2f jab is plus on block"}, replier.ID)
	s.Require().Equal(http.StatusCreated, w.Code)

	var fresh models.ForumThread
	s.Require().NoError(s.db.First(&fresh, "id = ?", thread.ID).Error)
	s.Equal(1, fresh.ReplyCount)

	w = s.request(http.MethodGet, "/api/v1/notifications/unread-count", nil, author.ID)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"count":1`)

	// Replies to locked threads are refused
	s.Require().NoError(s.db.Model(&fresh).Update("is_locked", true).Error)
	w = s.request(http.MethodPost, "/api/v1/forum/threads/"+thread.ID+"/replies",
		gin.H{"body": "too late"}, replier.ID)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersSuite) TestAuthRequired() {
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodPost, "/api/v1/events"},
		{http.MethodGet, "/api/v1/follow-requests"},
		{http.MethodGet, "/api/v1/views/news/news-1/stats"},
	} {
		w := s.request(tc.method, tc.path, nil, "")
		s.Equal(http.StatusUnauthorized, w.Code, fmt.Sprintf("%s %s", tc.method, tc.path))
	}
}
