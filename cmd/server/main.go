package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/wavedash/arena/backend/internal/auth"
	"github.com/wavedash/arena/backend/internal/cache"
	"github.com/wavedash/arena/backend/internal/chat"
	"github.com/wavedash/arena/backend/internal/database"
	"github.com/wavedash/arena/backend/internal/handlers"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/middleware"
	"github.com/wavedash/arena/backend/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables before anything reads them
	if err := godotenv.Load(); err != nil {
		// Not fatal; production injects config through the environment
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== Arena backend starting ===")

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	// Redis is optional; view-stats caching degrades to direct queries
	var redisClient *cache.RedisClient
	if host := os.Getenv("REDIS_HOST"); host != "" {
		var err error
		redisClient, err = cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Tracing is opt-in
	samplingRate := 0.1
	if raw := os.Getenv("OTEL_SAMPLING_RATE"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			samplingRate = parsed
		}
	}
	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "arena-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	}
	if tracerProvider != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracerProvider.Shutdown(ctx)
		}()
	}

	metrics.Initialize()

	hub := chat.NewHub(database.DB)
	go hub.Run()

	h := handlers.New(database.DB, authService, redisClient, hub)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tracerProvider != nil {
		r.Use(otelgin.Middleware("arena-backend"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		redisStatus := "disabled"
		if rc := cache.GetRedisClient(); rc != nil {
			redisStatus = "ok"
			if err := rc.Ping(c.Request.Context()); err != nil {
				redisStatus = "degraded"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"redis":     redisStatus,
			"timestamp": time.Now().UTC(),
			"service":   "arena-backend",
		})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth", middleware.RateLimitAuth())
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authService.Middleware(), h.Me)
		}

		// View tracking takes anonymous traffic; auth is optional
		viewsGroup := api.Group("/views")
		{
			viewsGroup.POST("/track", middleware.RateLimitTrackView(), authService.OptionalMiddleware(), h.TrackView)
			viewsGroup.GET("/:type/:id/stats", authService.Middleware(), h.GetViewStats)
		}

		eventsGroup := api.Group("/events")
		{
			eventsGroup.GET("", h.ListEvents)
			eventsGroup.GET("/:id", h.GetEvent)
			eventsGroup.POST("", authService.Middleware(), h.CreateEvent)
			eventsGroup.PUT("/:id/status", authService.Middleware(), h.UpdateEventStatus)
		}

		usersGroup := api.Group("/users")
		{
			usersGroup.GET("/:id", h.GetUser)
			usersGroup.GET("/:id/followers", h.ListFollowers)
			usersGroup.GET("/:id/following", h.ListFollowing)

			usersGroup.PUT("/me", authService.Middleware(), h.UpdateProfile)
			usersGroup.POST("/:id/follow", authService.Middleware(), h.FollowUser)
			usersGroup.DELETE("/:id/follow", authService.Middleware(), h.UnfollowUser)
			usersGroup.GET("/:id/relationship", authService.Middleware(), h.GetRelationship)
		}

		requestsGroup := api.Group("/follow-requests", authService.Middleware())
		{
			requestsGroup.GET("", h.ListFollowRequests)
			requestsGroup.GET("/count", h.CountFollowRequests)
			requestsGroup.POST("/:id/accept", h.AcceptFollowRequest)
			requestsGroup.POST("/:id/reject", h.RejectFollowRequest)
			requestsGroup.DELETE("/:id", h.CancelFollowRequest)
		}

		forumGroup := api.Group("/forum")
		{
			forumGroup.GET("/threads", h.ListThreads)
			forumGroup.GET("/threads/:id", h.GetThread)
			forumGroup.POST("/threads", authService.Middleware(), h.CreateThread)
			forumGroup.POST("/threads/:id/replies", authService.Middleware(), h.CreateReply)
		}

		matchmakingGroup := api.Group("/matchmaking")
		{
			matchmakingGroup.GET("/posts", h.ListMatchmakingPosts)
			matchmakingGroup.POST("/posts", authService.Middleware(), h.CreateMatchmakingPost)
			matchmakingGroup.DELETE("/posts/:id", authService.Middleware(), h.DeleteMatchmakingPost)
		}

		newsGroup := api.Group("/news")
		{
			newsGroup.GET("", h.ListNews)
			newsGroup.GET("/:slug", h.GetNewsArticle)
			newsGroup.POST("", authService.Middleware(), auth.ModeratorOnly(), h.CreateNewsArticle)
		}

		notificationsGroup := api.Group("/notifications", authService.Middleware())
		{
			notificationsGroup.GET("", h.ListNotifications)
			notificationsGroup.GET("/unread-count", h.UnreadNotificationCount)
			notificationsGroup.POST("/read", h.MarkNotificationsRead)
		}

		reportsGroup := api.Group("/reports")
		{
			reportsGroup.POST("", authService.Middleware(), h.CreateReport)
			reportsGroup.GET("", authService.Middleware(), auth.ModeratorOnly(), h.ListReports)
			reportsGroup.POST("/:id/resolve", authService.Middleware(), auth.ModeratorOnly(), h.ResolveReport)
		}

		api.GET("/games", h.ListGames)

		api.GET("/ws/chat/:room", authService.Middleware(), hub.ServeWS)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Arena backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("server exited")
}
