package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/api/middleware"
)

// Handlers groups everything the router mounts. Voice and Signature may be
// nil, in which case the voice webhooks are not registered.
type Handlers struct {
	Catalog   *CatalogHandler
	Chat      *ChatHandler
	Meta      *MetaHandler
	Reminders *ReminderHandler
	Voice     *VoiceHandler
	WebSocket gin.HandlerFunc

	Signature     middleware.SignatureValidator
	PublicBaseURL string
}

// RouterConfig carries the cross-cutting middleware settings
type RouterConfig struct {
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// NewRouter wires routes and middleware
func NewRouter(h Handlers, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", h.Catalog.Health)

	apiGroup := router.Group("/api")
	if cfg.RateLimiter != nil {
		apiGroup.Use(middleware.PerIP(cfg.RateLimiter))
	}
	{
		apiGroup.POST("/chat", h.Chat.Chat)
		apiGroup.POST("/diagnose", h.Chat.Diagnose)
		apiGroup.POST("/intent", h.Chat.Intent)
		apiGroup.POST("/catalog/reload", h.Catalog.Reload)

		apiGroup.GET("/languages", h.Meta.GetLanguages)
		apiGroup.GET("/tips/random", h.Meta.GetTip)

		apiGroup.GET("/reminders", h.Reminders.GetReminders)
		apiGroup.POST("/reminders", h.Reminders.CreateReminder)
		apiGroup.DELETE("/reminders/:id", h.Reminders.DeleteReminder)
	}

	if h.WebSocket != nil {
		router.GET("/ws/chat", h.WebSocket)
	}

	// Twilio webhooks are authenticated by signature, not rate limited
	if h.Voice != nil && h.Signature != nil {
		voice := router.Group("/api/voice")
		voice.Use(middleware.TwilioSignature(h.Signature, h.PublicBaseURL, logger))
		{
			voice.POST("/incoming", h.Voice.HandleIncoming)
			voice.POST("/gather", h.Voice.HandleGather)
			voice.POST("/status", h.Voice.HandleStatus)
		}
	}

	return router
}
