package routes

import (
	"net/http"

	"fixedttl-cache/internal/auth"
	"fixedttl-cache/internal/handlers"
	"fixedttl-cache/internal/middleware"
	"fixedttl-cache/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP handlers are built from.
type Deps struct {
	Cache  *handlers.CacheStore
	Hub    *realtime.Hub
	DB     *gorm.DB
	Tokens *auth.Manager
	Logger *zap.Logger
}

func SetupRoutes(deps Deps) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(middleware.ZapLogger(deps.Logger), gin.Recovery())

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Fixed TTL cache API is running",
		})
	})

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Tokens)
	cacheHandler := handlers.NewCacheHandler(deps.Cache, deps.Hub)
	userHandler := handlers.NewUserHandler(deps.DB)
	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Logger)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", authHandler.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		protectedRoutes.GET("/cache", cacheHandler.ListKeys)
		protectedRoutes.GET("/cache/:key", cacheHandler.GetEntry)
		protectedRoutes.PUT("/cache/:key", cacheHandler.PutEntry)
		protectedRoutes.GET("/stats", cacheHandler.GetStats)
		protectedRoutes.GET("/users", userHandler.GetAllUsers)
		protectedRoutes.GET("/ws", wsHandler.Subscribe)
	}

	return ginRouter
}
