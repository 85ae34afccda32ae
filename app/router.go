package app

import (
	"bitwise74/share-api/app/file"
	"bitwise74/share-api/app/jobs"
	"bitwise74/share-api/app/link"
	"bitwise74/share-api/app/root"
	"bitwise74/share-api/app/share"
	"bitwise74/share-api/app/user"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/pkg/middleware"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRouter builds the HTTP surface on top of already wired dependencies
func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     d.Config.Host.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 8 << 20

	jwt := middleware.NewJWTMiddleware(d.DB, d.Config.JWT.Secret)
	turnstile := middleware.NewTurnstileMiddleware(d.Config.Security.TurnstileSecret)
	cronSecret := middleware.NewCronSecretMiddleware(d.Config.Security.CronSecret)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: d.Config.Security.RateLimit,
		Burst:             d.Config.Security.RateLimit * 2,
		CleanupInterval:   time.Minute,
		TTL:               5 * time.Minute,
	})

	// Responses are private, the cache key has to carry the caller
	perUser := func(sec int) gin.HandlerFunc {
		return cache.Cache(d.Cache, time.Duration(sec)*time.Second,
			cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
				return true, cache.Strategy{
					CacheKey: c.GetString("userID") + ":" + c.Request.RequestURI,
				}
			}))
	}

	wrap := func(h func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
		return func(c *gin.Context) { h(c, d) }
	}

	api := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		api.HEAD("/heartbeat", wrap(root.Heartbeat))

		// GET /api/validate		-> Validates a JWT token
		api.GET("/validate", jwt, root.Validate)
	}

	users := api.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/users		-> Returns the quota and share stats of a user
		users.GET("", jwt, perUser(30), wrap(user.UserFetch))

		// POST /api/users 		-> Registers a new user
		users.POST("", turnstile, wrap(user.UserRegister))

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		users.POST("/login", turnstile, wrap(user.UserLogin))
	}

	files := api.Group("/files", jwt)
	{
		// GET /api/files		-> Returns a page of the user's files
		files.GET("", wrap(file.FileFetchBulk))

		// GET /api/files/search	-> Searches the user's files by name
		files.GET("/search", wrap(file.FileSearch))

		// GET /api/files/:id		-> Returns a file by its ID if the user owns it
		files.GET("/:id", wrap(file.FileFetch))

		// GET /api/files/:id/preview	-> Streams a file inline to its owner
		files.GET("/:id/preview", wrap(file.FilePreview))

		// POST /api/files         	-> Uploads a new file
		files.POST("", middleware.BodySizeLimiter(d.Config.Upload.MaxSize+1<<20), wrap(file.FileUpload))

		// PATCH /api/files/:id		-> Moves a file to another folder
		files.PATCH("/:id", wrap(file.FileEdit))

		// DELETE /api/files/:id	-> Deletes a file and every link to it
		files.DELETE("/:id", wrap(file.FileDelete))

		// POST /api/files/bulk-delete	-> Deletes several files at once
		files.POST("/bulk-delete", middleware.BodySizeLimiter(1<<20), wrap(file.FileBulkDelete))
	}

	links := api.Group("/links", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/links		-> Creates a share link for a file
		links.POST("", wrap(link.LinkCreate))

		// GET /api/links		-> Lists the user's share links
		links.GET("", wrap(link.LinkList))

		// PATCH /api/links/:id		-> Extends, regenerates or revokes a link
		links.PATCH("/:id", wrap(link.LinkUpdate))

		// DELETE /api/links/:id	-> Revokes a link
		links.DELETE("/:id", wrap(link.LinkDelete))
	}

	shared := api.Group("/share", rateLimiter, middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/share/:code		-> Public metadata of a link
		shared.GET("/:code", wrap(share.ShareMeta))

		// POST /api/share/:code/download	-> Downloads the shared file
		shared.POST("/:code/download", wrap(share.ShareDownload))

		// POST /api/share/:code/content	-> Inline preview, doesn't count as a download
		shared.POST("/:code/content", wrap(share.ShareContent))
	}

	j := api.Group("/jobs", cronSecret)
	{
		// GET|POST /api/jobs/cleanup	-> Full reclamation pass
		j.GET("/cleanup", wrap(jobs.Cleanup))
		j.POST("/cleanup", wrap(jobs.Cleanup))

		// GET|POST /api/jobs/cleanup-expired-links	-> Expired link sweep only
		j.GET("/cleanup-expired-links", wrap(jobs.CleanupExpiredLinks))
		j.POST("/cleanup-expired-links", wrap(jobs.CleanupExpiredLinks))
	}

	return router
}
