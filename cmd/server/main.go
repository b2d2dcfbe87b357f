package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/auth"
	"screenplay-collab/internal/collaborator"
	"screenplay-collab/internal/comment"
	"screenplay-collab/internal/config"
	"screenplay-collab/internal/db"
	"screenplay-collab/internal/logger"
	"screenplay-collab/internal/middleware"
	"screenplay-collab/internal/notify"
	"screenplay-collab/internal/redis"
	"screenplay-collab/internal/script"
	"screenplay-collab/internal/session"
	"screenplay-collab/internal/sharelink"
	"screenplay-collab/internal/user"
	"screenplay-collab/internal/version"
	"screenplay-collab/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Environment)

	// Connect to database
	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close(gdb)

	// Migrate database schema
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if cfg.SeedData {
		if err := db.Seed(gdb, log); err != nil {
			log.Warn().Err(err).Msg("seeding failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional, nil disables the cache and presence
	redisClient := redis.Connect(ctx, cfg.RedisAddress, log)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := redis.NewCache(redisClient, log)
	presence := redis.NewPresenceStore(redisClient, 2*time.Minute)

	pool := worker.NewWorkerPool(cfg.WorkerPoolSize, 1000, log)

	dispatchers := notify.Multi{notify.NewStoreDispatcher(gdb)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		defer publisher.Close()
		dispatchers = append(dispatchers, publisher)
	}
	notifier := notify.NewNotifier(dispatchers, pool, log)
	recorder := activity.NewRecorder(gdb, pool)
	resolver := access.NewResolver(gdb)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Initialize services
	userService := user.NewService(user.NewRepository(gdb))
	scriptService := script.NewService(script.NewRepository(gdb), resolver, cache, presence, recorder, log)
	versionService := version.NewService(version.NewRepository(gdb), resolver, cache, notifier, recorder, log)
	collabService := collaborator.NewService(collaborator.NewRepository(gdb), resolver, presence, notifier, recorder, log)
	commentService := comment.NewService(comment.NewRepository(gdb), resolver, notifier, recorder, log)
	shareService := sharelink.NewService(sharelink.NewRepository(gdb), resolver, pool, recorder, log)
	sessionService := session.NewService(session.NewRepository(gdb), resolver, cfg.SessionTTL, log)

	// Initialize handlers
	userHandler := user.NewHandler(userService, tokens)
	scriptHandler := script.NewHandler(scriptService)
	versionHandler := version.NewHandler(versionService)
	collabHandler := collaborator.NewHandler(collabService)
	commentHandler := comment.NewHandler(commentService)
	shareHandler := sharelink.NewHandler(shareService)
	sessionHandler := session.NewHandler(sessionService)
	notificationHandler := notify.NewHandler(notify.NewInbox(gdb))
	activityHandler := activity.NewHandler(recorder, resolver)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.ErrorHandler(log))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: false,
	}
	if cfg.IsProduction() {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	} else {
		// Allow all origins outside production
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	authMiddleware := &middleware.Auth{UserService: userService, Tokens: tokens}

	// Public routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.POST("/share/:token", shareHandler.Resolve)

	api := router.Group("/", authMiddleware.AuthMiddleWare())

	// User routes
	api.DELETE("/logout", userHandler.Logout)
	api.GET("/profile", userHandler.GetProfile)
	api.PUT("/profile", userHandler.UpdateProfile)
	api.PUT("/users/:id/role", userHandler.ChangeRole)
	api.DELETE("/users/:id", userHandler.Deactivate)

	// Script routes
	api.POST("/scripts", scriptHandler.Create)
	api.GET("/scripts", scriptHandler.ListOwned)
	api.GET("/scripts/shared", scriptHandler.ListShared)
	api.GET("/scripts/:id", scriptHandler.Show)
	api.PUT("/scripts/:id", scriptHandler.Update)
	api.DELETE("/scripts/:id", scriptHandler.Delete)
	api.PUT("/scripts/:id/status", scriptHandler.ChangeStatus)
	api.POST("/scripts/:id/reopen", scriptHandler.Reopen)

	// Version routes
	api.POST("/scripts/:id/versions", versionHandler.Commit)
	api.GET("/scripts/:id/versions", versionHandler.List)
	api.GET("/scripts/:id/versions/latest", versionHandler.Latest)
	api.GET("/scripts/:id/versions/:number", versionHandler.Show)
	api.GET("/scripts/:id/diff", versionHandler.Diff)

	// Collaborator routes
	api.GET("/scripts/:id/collaborators", collabHandler.List)
	api.POST("/scripts/:id/collaborators", collabHandler.Invite)
	api.POST("/scripts/:id/collaborators/bulk", collabHandler.BulkInvite)
	api.DELETE("/scripts/:id/collaborators/me", collabHandler.Leave)
	api.PUT("/scripts/:id/collaborators/:userId", collabHandler.ChangeRole)
	api.DELETE("/scripts/:id/collaborators/:userId", collabHandler.Remove)
	api.GET("/invitations", collabHandler.Invitations)
	api.POST("/invitations/:id/respond", collabHandler.Respond)
	api.PUT("/scripts/:id/presence", collabHandler.UpdatePresence)
	api.GET("/scripts/:id/presence", collabHandler.ListPresence)

	// Comment routes
	api.POST("/scripts/:id/comments", commentHandler.Add)
	api.GET("/scripts/:id/comments", commentHandler.List)
	api.PUT("/comments/:id", commentHandler.Edit)
	api.DELETE("/comments/:id", commentHandler.Delete)
	api.POST("/comments/:id/resolve", commentHandler.Resolve)
	api.POST("/comments/:id/reopen", commentHandler.Reopen)

	// Share link routes
	api.POST("/scripts/:id/share-links", shareHandler.Create)
	api.GET("/scripts/:id/share-links", shareHandler.List)
	api.DELETE("/share-links/:id", shareHandler.Revoke)

	// Session routes
	api.POST("/scripts/:id/sessions", sessionHandler.Open)
	api.GET("/scripts/:id/sessions", sessionHandler.ListActive)
	api.GET("/sessions/:id", sessionHandler.Show)
	api.PUT("/sessions/:id", sessionHandler.Heartbeat)
	api.DELETE("/sessions/:id", sessionHandler.Close)

	// Notification and activity routes
	api.GET("/notifications", notificationHandler.List)
	api.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
	api.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	api.GET("/scripts/:id/activity", activityHandler.List)

	// Server configuration
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Start server
	g.Go(func() error {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return session.RunSweeper(gctx, sessionService, cfg.SessionSweepInterval, log)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}

	// drain background tasks before the database closes
	pool.Shutdown()
	log.Info().Msg("server shutdown complete")
}
