package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/fogelran/people-match/internal/config"
	"github.com/fogelran/people-match/internal/handler"
	"github.com/fogelran/people-match/internal/middleware"
	"github.com/fogelran/people-match/internal/service"
)

type routerDeps struct {
	authService     *service.AuthService
	matchingService *service.MatchingService
	redisClient     redis.UniversalClient // nil, если Redis выключен
	isProduction    bool
}

// newRouter настраивает маршруты API
func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	authHandler := handler.NewAuthHandler(deps.authService)
	questionHandler := handler.NewQuestionHandler(deps.matchingService, deps.authService)
	matchHandler := handler.NewMatchHandler(deps.matchingService, deps.authService)
	userHandler := handler.NewUserHandler(deps.matchingService, deps.authService)

	authMiddleware := middleware.NewAuthMiddleware(deps.authService)

	router := gin.Default()

	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if deps.isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Аутентификация, с лимитом по IP при наличии Redis
		authRoutes := api.Group("")
		if deps.redisClient != nil {
			limiter := middleware.NewRateLimiter(deps.redisClient)
			authRoutes.Use(limiter.Limit(middleware.AuthRateLimitConfig(
				cfg.RateLimit.AuthMaxRequests,
				time.Duration(cfg.RateLimit.AuthWindowSec)*time.Second,
			)))
		}
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		authed := api.Group("")
		authed.Use(authMiddleware.RequireAuth())
		{
			questions := authed.Group("/questions")
			{
				questions.GET("/next", questionHandler.NextQuestion)
				questions.POST("/answer", questionHandler.Answer)
				questions.POST("/skip", questionHandler.Skip)
				questions.POST("/ask", questionHandler.Ask)
				questions.POST("/ask-existing", questionHandler.AskExisting)
				questions.GET("/export", questionHandler.ExportCatalog)
				questions.GET("/:id", middleware.ExtractUintParam("id", "questionID"), questionHandler.GetQuestion)
			}

			authed.POST("/users/search", userHandler.Search)
			authed.GET("/match/check", matchHandler.Check)
		}
	}

	return router
}
