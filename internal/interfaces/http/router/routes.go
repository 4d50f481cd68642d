package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/logger"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/handler"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/middleware"
)

// Handlers are the screens served by the BFF
type Handlers struct {
	Catalog      *handler.CatalogHandler
	Import       *handler.ImportHandler
	Session      *handler.SessionHandler
	Settings     *handler.SettingsHandler
	Notification *handler.NotificationHandler
	Dashboard    *handler.DashboardHandler
}

// NewEngine creates a gin engine with the request id, logging, recovery, CORS
// and body limit middleware
func NewEngine(cfg *config.HTTPConfig, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.MaxUploadSize),
	)
	engine.GET("/health", handler.Health)
	return engine
}

// Setup mounts every screen under the router prefix
func Setup(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	r := NewRouter(engine, opts...)
	r.Register(h.Groups()...)
	r.Setup()
	return r
}

// Groups returns the route groups of the present handlers
func (h Handlers) Groups() []RouteRegistrar {
	var groups []RouteRegistrar

	if h.Notification != nil {
		groups = append(groups, NewDomainGroup("notification", "/notification").
			GET("", h.Notification.Current).
			DELETE("", h.Notification.Dismiss))
	}

	if h.Settings != nil {
		groups = append(groups, NewDomainGroup("settings", "/settings").
			GET("", h.Settings.Get).
			PATCH("", h.Settings.Patch).
			DELETE("", h.Settings.Reset).
			GET("/thresholds", h.Settings.Thresholds).
			PUT("/thresholds", h.Settings.SaveThresholds).
			DELETE("/thresholds", h.Settings.ResetThresholds))
	}

	if h.Session != nil {
		groups = append(groups, NewDomainGroup("session", "/session").
			GET("", h.Session.State).
			POST("/login", h.Session.Login).
			POST("/register", h.Session.Register).
			POST("/logout", h.Session.Logout).
			PUT("/profile", h.Session.UpdateProfile).
			GET("/avatar", h.Session.Avatar).
			POST("/avatar", h.Session.UploadAvatar))
	}

	if h.Dashboard != nil {
		groups = append(groups, NewDomainGroup("dashboard", "/dashboard").
			GET("", h.Dashboard.Get).
			POST("/refresh", h.Dashboard.Refresh))
	}

	if h.Catalog != nil || h.Import != nil {
		g := NewDomainGroup("catalog", "/:entity")
		if c := h.Catalog; c != nil {
			g.GET("", c.List).
				POST("/refetch", c.Refetch).
				GET("/export", c.Export).
				GET("/dialog", c.Dialog).
				POST("/dialog/create", c.OpenCreate).
				POST("/dialog/edit/:id", c.OpenEdit).
				POST("/dialog/delete/:id", c.OpenDelete).
				POST("/dialog/delete/confirm", c.Submit).
				POST("/dialog/adjust/:id", c.OpenAdjust).
				POST("/dialog/adjust/submit", c.SubmitAdjust).
				PATCH("/dialog/draft", c.PatchDraft).
				POST("/dialog/submit", c.Submit).
				POST("/dialog/close", c.Close)
		}
		if i := h.Import; i != nil {
			g.GET("/import/template", i.Template).
				POST("/import/validate", i.Validate).
				POST("/import/:batchId/commit", i.Commit).
				DELETE("/import/:batchId", i.Discard)
		}
		groups = append(groups, g)
	}
	return groups
}
