package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"clearsite/internal/csmiddleware"
	handlers_about "clearsite/internal/handlers/about"
	handlers_admin "clearsite/internal/handlers/admin"
	handlers_analytics "clearsite/internal/handlers/analytics"
	handlers_blog "clearsite/internal/handlers/blog"
	handlers_leads "clearsite/internal/handlers/leads"
	handlers_rss "clearsite/internal/handlers/rss"
	handlers_static "clearsite/internal/handlers/static"
	"clearsite/internal/models/csabout"
	"clearsite/internal/models/csleads"
	"clearsite/internal/models/cssite"
	"clearsite/internal/models/cstracker"
)

func newRedisClient() *redis.Client {
	if configuration.Database.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: configuration.Database.Redis.Addr,
		DB:   configuration.Database.Redis.Db,
	})
}

func setRoutes(r *gin.Engine) {
	site := cssite.GetInstance()
	m := handlers_static.NewMinifier()

	// middleware rate limiter
	middlewareLimiter := csmiddleware.NewLimiter(configuration.RateLimit)

	tracker := cstracker.New(
		site.Db,
		newRedisClient(),
		time.Duration(configuration.Analytics.SessionTimeoutMinutes)*time.Minute,
	)
	tracker.StartRetention(configuration.Analytics.RetentionDays)

	analyticsHandler := handlers_analytics.NewAnalyticsHandler(tracker)
	aboutHandler := handlers_about.NewAboutHandler(csabout.NewManager(site.Db))
	leadsHandler := handlers_leads.NewLeadsHandler(csleads.NewService(site.Db), tracker)
	blogHandler := handlers_blog.NewBlogHandler(site.Db)

	//default
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page non trouvée"})
	})

	// Route statiques
	r.Static("/static/", configuration.StaticPath)
	r.GET("/files/css/*.css", handlers_static.ServeMinified(m, configuration.StaticPath))
	r.GET("/files/js/*.js", handlers_static.ServeMinified(m, configuration.StaticPath))
	r.GET("/files/img/*.svg", handlers_static.ServeMinified(m, configuration.StaticPath))
	r.GET("/files/captcha", func(c *gin.Context) {
		site.Captcha.CaptchaHandler(c, configuration.Production)
	})

	// Routes d'authentification
	r.POST("/admin/login", middlewareLimiter, handlers_admin.LoginHandler)
	r.POST("/admin/logout", handlers_admin.LogoutHandler)

	// API publiques
	api := r.Group("/api")
	{
		api.POST("/analytics/track", analyticsHandler.Track)
		api.POST("/analytics/heartbeat", analyticsHandler.Heartbeat)
		api.GET("/about", aboutHandler.Get)
		api.POST("/newsletter/subscribe", middlewareLimiter, leadsHandler.Subscribe)
		api.POST("/contact", middlewareLimiter, leadsHandler.Contact)
		api.POST("/careers", middlewareLimiter, leadsHandler.Apply)
		api.POST("/cookies/consent", middlewareLimiter, leadsHandler.Consent)
		api.GET("/posts", blogHandler.GetPosts)
		api.GET("/posts/:slug", blogHandler.GetPost)
	}

	// API d'administration protégées
	admin := r.Group("/api/admin")
	admin.Use(handlers_admin.AuthRequired())
	{
		admin.GET("/check", handlers_admin.CheckHandler)
		admin.GET("/analytics", analyticsHandler.GetSummary)
		admin.GET("/analytics/stats", analyticsHandler.GetStats30Days)
		admin.GET("/analytics/realtime", analyticsHandler.GetRealtimeStats)
		admin.POST("/about", aboutHandler.Insert)
		admin.DELETE("/about/:id", aboutHandler.Delete)
		admin.GET("/about/preview", aboutHandler.Preview)
		admin.POST("/posts", blogHandler.CreatePost)
		admin.PUT("/posts/:id", blogHandler.UpdatePost)
		admin.DELETE("/posts/:id", blogHandler.DeletePost)
	}

	// Flux RSS
	r.GET("/rss.xml", handlers_rss.RssHandler)
	r.GET("/rss.xml/:category", handlers_rss.RssHandler)
}
