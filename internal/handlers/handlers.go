package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cartly/api/internal/config"
	"cartly/api/internal/mail"
	"cartly/api/internal/middleware"
	"cartly/api/internal/models"
	"cartly/api/internal/provider"
	"cartly/api/internal/ratelimit"
	"cartly/api/internal/repository"
	"cartly/api/internal/security"
	"cartly/api/internal/service"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	issuer         *security.TokenIssuer
	authService    *service.AuthService
	sessionService *service.SessionService
	providers      *provider.Registry
	users          *repository.UserRepository
	db             *pgxpool.Pool
	cache          *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, providers *provider.Registry, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	notifier := mail.New(cfg.Mail, log)
	issuer := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTAccessTTL, cfg.Security.JWTRefreshTTL)
	limiter := ratelimit.New(cache, log)

	auth := service.NewAuthService(userRepo, sessionRepo, notifier, issuer, limiter, cfg, log)
	sessions := service.NewSessionService(sessionRepo, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		issuer:         issuer,
		authService:    auth,
		sessionService: sessions,
		providers:      providers,
		users:          userRepo,
		db:             db,
		cache:          cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/verify", h.Verify)
		auth.POST("/check-code", h.CheckVerificationCode)
		auth.POST("/resend-code", h.ResendVerificationCode)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/:provider/callback", h.SocialCallback)

		protected := v1.Group("")
		protected.Use(middleware.Auth(h.issuer, h.users))
		protected.GET("/auth/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions", h.RevokeOtherSessions)
		protected.DELETE("/sessions/:id", h.RevokeSession)

		admin := v1.Group("/admin")
		admin.Use(
			middleware.Auth(h.issuer, h.users),
			middleware.RequireRole(models.RoleAdmin),
		)
		admin.GET("/users/:id", h.AdminGetUser)
	}
}
