package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"moodadmin/api/internal/catalog"
	"moodadmin/api/internal/config"
	"moodadmin/api/internal/middleware"
	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/service"
	"moodadmin/api/internal/stats"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	directory   *service.DirectoryService
	content     *service.ContentService
	meditations *service.MeditationService
	aggregator  *stats.Aggregator
	catalog     *catalog.Catalog
	admins      *repository.AdminRepository
	sessions    *repository.AdminSessionRepository
	db          *pgxpool.Pool
	cache       *redis.Client
}

type Deps struct {
	Log         zerolog.Logger
	Cfg         *config.AppConfig
	AuthService *service.AuthService
	Directory   *service.DirectoryService
	Content     *service.ContentService
	Meditations *service.MeditationService
	Aggregator  *stats.Aggregator
	Catalog     *catalog.Catalog
	Admins      *repository.AdminRepository
	Sessions    *repository.AdminSessionRepository
	DB          *pgxpool.Pool
	Cache       *redis.Client
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:         deps.Log,
		cfg:         deps.Cfg,
		authService: deps.AuthService,
		directory:   deps.Directory,
		content:     deps.Content,
		meditations: deps.Meditations,
		aggregator:  deps.Aggregator,
		catalog:     deps.Catalog,
		admins:      deps.Admins,
		sessions:    deps.Sessions,
		db:          deps.DB,
		cache:       deps.Cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.admins, h.sessions))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	admin := v1.Group("")
	admin.Use(
		middleware.Auth(h.cfg, h.admins, h.sessions),
		middleware.RequireAllowed(h.cfg.Security.AllowedAdminIDs),
	)
	{
		admin.GET("/dashboard", h.Dashboard)

		admin.GET("/users", h.ListUsers)
		admin.PATCH("/users/:deviceId/status", h.ToggleUserStatus)

		content := admin.Group("/content")
		content.GET("/tabs", h.ListTabs)
		content.GET("/versions", h.ListVersions)
		content.GET("/versions/next-name", h.NextVersionName)
		content.POST("/versions", h.CreateVersion)
		content.PUT("/versions/:name", h.UpdateVersion)
		content.DELETE("/versions/:name", h.DeleteVersion)

		admin.GET("/meditations", h.ListMeditations)
		admin.PUT("/meditations/:id", h.UpdateMeditation)
	}
}
