package handlers

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"authgate/api/internal/config"
	"authgate/api/internal/middleware"
	"authgate/api/internal/ratelimit"
	"authgate/api/internal/service"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    *service.AuthService
	limiter ratelimit.Limiter
	checks  map[string]Pinger
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, auth *service.AuthService, limiter ratelimit.Limiter, checks map[string]Pinger) HandlerSet {
	registerJSONTagNames()
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    auth,
		limiter: limiter,
		checks:  checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	rl := h.cfg.RateLimit
	requireUser := middleware.Auth(h.auth)

	auth := router.Group("/auth")
	{
		auth.POST("/register",
			middleware.RateLimit(h.limiter, "register", rl.RegisterMax, rl.Window, "Too many requests", h.log),
			h.RegisterUser,
		)
		auth.POST("/login",
			middleware.RateLimit(h.limiter, "login", rl.LoginMax, rl.Window, "Too many login attempts", h.log),
			h.Login,
		)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", requireUser, h.Me)

		auth.GET("/google/url", h.GoogleURL)
		auth.GET("/google/callback", h.GoogleCallbackRedirect)
		auth.POST("/google/callback", h.GoogleCallbackDirect)
		auth.POST("/google/one-tap", h.GoogleOneTap)
		auth.POST("/link-google", requireUser, h.LinkGoogle)
	}

	admin := router.Group("/admin")
	admin.Use(requireUser, middleware.RequireAdmin())
	admin.GET("/users/:userId", h.AdminGetUser)
}

var tagNameOnce sync.Once

// registerJSONTagNames makes binding errors name fields by their JSON key.
func registerJSONTagNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
