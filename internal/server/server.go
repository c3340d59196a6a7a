package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "orderlyflow/docs"
	"orderlyflow/internal/auth"
	"orderlyflow/internal/cache"
	"orderlyflow/internal/config"
	"orderlyflow/internal/database"
	"orderlyflow/internal/handler"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/metrics"
	"orderlyflow/internal/middleware"
	"orderlyflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine  *gin.Engine
	Handler http.Handler
	DB      *gorm.DB
	Redis   *redis.Client
	Config  *config.Config
	Metrics *metrics.Metrics
	log     *logger.Logger
}

// Init connects the database and Redis (when configured), applies
// migrations and builds the router.
func Init(cfg *config.Config, log *logger.Logger) (*Server, error) {
	log = logger.Or(log)
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := database.Migrate(db, log); err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	var (
		counts cache.Counts = cache.Nop{}
		rdb    *redis.Client
	)
	if cfg.Redis.Enabled() {
		rdb, err = cache.Connect(context.Background(), cfg.Redis)
		if err != nil {
			return nil, err
		}
		counts = cache.NewRedisCounts(rdb, cfg.Redis.CountTTL, m)
		log.Infow("✅ Connected to Redis", "addr", cfg.Redis.Addr())
	} else {
		log.Infow("⚠️  Redis not configured, update counts are not cached")
	}

	s := New(cfg, db, counts, m, log)
	s.Redis = rdb
	return s, nil
}

// New builds the router over db without touching the network.
func New(cfg *config.Config, db *gorm.DB, counts cache.Counts, m *metrics.Metrics, log *logger.Logger) *Server {
	log = logger.Or(log)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.UseJSONNames()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(m))

	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	itemRepo := repository.NewItemRepository(db)
	subitemRepo := repository.NewSubitemRepository(db)
	personRepo := repository.NewPersonRepository(db)
	updateRepo := repository.NewUpdateRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)

	boardHandler := handler.NewBoardHandler(boardRepo, log)
	groupHandler := handler.NewGroupHandler(groupRepo, boardRepo, log)
	itemHandler := handler.NewItemHandler(itemRepo, subitemRepo, boardRepo, log)
	personHandler := handler.NewPersonHandler(personRepo, boardRepo, log)
	updateHandler := handler.NewUpdateHandler(updateRepo, boardRepo, userRepo, counts, log)
	memberHandler := handler.NewMemberHandler(orgRepo, log)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewKeyedLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	authorized := r.Group("/api")
	authorized.Use(middleware.JWTAuthMiddleware(auth.NewIssuer(cfg.JWT)), middleware.RateLimit(limiter))
	{
		// Board routes
		authorized.GET("/boards", boardHandler.List)
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards/:id", boardHandler.Get)
		authorized.PATCH("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)

		// Group routes
		authorized.GET("/boards/:id/groups", groupHandler.List)
		authorized.POST("/boards/:id/groups", groupHandler.Create)
		authorized.PATCH("/boards/:id/groups/:gid", groupHandler.Update)
		authorized.DELETE("/boards/:id/groups/:gid", groupHandler.Delete)

		// Item routes
		authorized.GET("/boards/:id/items", itemHandler.ListItems)
		authorized.POST("/boards/:id/items", itemHandler.CreateItem)
		authorized.PATCH("/boards/:id/items/:iid", itemHandler.UpdateItem)
		authorized.DELETE("/boards/:id/items/:iid", itemHandler.DeleteItem)

		// Subitem routes
		authorized.GET("/boards/:id/subitems", itemHandler.ListSubitems)
		authorized.POST("/boards/:id/subitems", itemHandler.CreateSubitem)
		authorized.PATCH("/boards/:id/subitems/:sid", itemHandler.UpdateSubitem)
		authorized.DELETE("/boards/:id/subitems/:sid", itemHandler.DeleteSubitem)

		// People routes
		authorized.GET("/boards/:id/people", personHandler.List)
		authorized.POST("/boards/:id/people", personHandler.Create)
		authorized.PATCH("/boards/:id/people/:pid", personHandler.Update)
		authorized.DELETE("/boards/:id/people/:pid", personHandler.Delete)

		// Update routes
		authorized.GET("/updates", updateHandler.List)
		authorized.GET("/updates/count", updateHandler.Count)
		authorized.POST("/updates", updateHandler.Create)
		authorized.DELETE("/updates", updateHandler.Delete)

		authorized.GET("/organizations/:id/members", memberHandler.List)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Security.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return &Server{
		Engine:  r,
		Handler: c.Handler(r),
		DB:      db,
		Config:  cfg,
		Metrics: m,
		log:     log,
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      s.Handler,
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("🚀 Server running on port %s", s.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("❌ failed to listen: %w", err)
	case <-quit:
	}
	s.log.Info("🛑 Shutting down server...")

	timeout := s.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("❌ server forced to shutdown: %w", err)
	}
	s.close()
	s.log.Info("✅ Server exited properly")
	return nil
}

func (s *Server) close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close database")
		}
	}
}
