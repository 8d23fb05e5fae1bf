package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/api/middleware"
	"github.com/themobileprof/medibot-be/internal/chat"
	"github.com/themobileprof/medibot-be/internal/fallback"
	"github.com/themobileprof/medibot-be/internal/reminder"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware decides who may call the API
	},
}

var ErrRateLimited = errors.New("too many messages, please slow down")

// Processor runs one chat turn
type Processor interface {
	ProcessMessage(ctx context.Context, req chat.ProcessRequest) (*chat.Reply, error)
}

// ReminderScheduler accepts reminder requests from the chat window
type ReminderScheduler interface {
	Schedule(ctx context.Context, req reminder.Request) (*reminder.Reminder, error)
}

// TipSource yields health tips
type TipSource interface {
	Next() string
}

// Config tunes the handler
type Config struct {
	TipInterval       time.Duration // zero disables tips
	VoiceDefault      bool
	MessagesPerMinute int // per connection; zero means unlimited
}

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	engine    Processor
	hub       *Hub
	reminders ReminderScheduler
	tips      TipSource
	cfg       Config
	logger    *zap.Logger
}

// NewChatHandler creates a new chat handler. reminders and tips may be nil.
func NewChatHandler(engine Processor, hub *Hub, reminders ReminderScheduler, tips TipSource, cfg Config, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &ChatHandler{
		engine:    engine,
		hub:       hub,
		reminders: reminders,
		tips:      tips,
		cfg:       cfg,
		logger:    logger,
	}
}

// IncomingMessage represents a message from the client. Type is "chat"
// (the default) or "reminder".
type IncomingMessage struct {
	Type     string `json:"type,omitempty"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Voice    *bool  `json:"voice,omitempty"`
	Time     string `json:"time,omitempty"`
	Sound    string `json:"sound,omitempty"`
}

// HandleChat handles WebSocket chat connections. Query parameters:
// session_id (generated when absent), language, voice.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	language := c.Query("language")
	voice := h.cfg.VoiceDefault
	if v, err := strconv.ParseBool(c.Query("voice")); err == nil {
		voice = v
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	cl := newClient(sessionID, conn)
	h.hub.register(cl)
	defer h.hub.unregister(cl)

	h.logger.Info("websocket connected",
		zap.String("session_id", sessionID),
		zap.String("language", language),
		zap.Bool("voice", voice))

	if err := cl.write(OutgoingMessage{Type: TypeSession, Content: sessionID}); err != nil {
		return
	}
	if h.tips != nil && h.cfg.TipInterval > 0 {
		go h.pushTips(ctx, cl)
	}

	var limiter *middleware.WebSocketLimiter
	if h.cfg.MessagesPerMinute > 0 {
		limiter = middleware.NewWebSocketLimiter(h.cfg.MessagesPerMinute)
	}

	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.String("session_id", sessionID), zap.Error(err))
			}
			break
		}

		if limiter != nil && !limiter.Allow() {
			cl.SendError(ErrRateLimited.Error())
			continue
		}

		if msg.Language != "" {
			language = msg.Language
		}
		if msg.Voice != nil {
			voice = *msg.Voice
		}

		switch msg.Type {
		case "reminder":
			h.scheduleReminder(ctx, cl, msg)
		default:
			h.processMessage(ctx, cl, language, voice, msg.Content)
		}
	}

	h.logger.Info("websocket closed", zap.String("session_id", sessionID))
}

func (h *ChatHandler) processMessage(ctx context.Context, cl *client, language string, voice bool, content string) {
	_, err := h.engine.ProcessMessage(ctx, chat.ProcessRequest{
		SessionID: cl.sessionID,
		Message:   content,
		Language:  language,
		Voice:     voice,
		Responder: cl,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrEmptyMessage):
		cl.SendError(err.Error())
	default:
		h.logger.Error("error processing message", zap.String("session_id", cl.sessionID), zap.Error(err))
		cl.SendError(fallback.GetErrorResponse().Content)
	}
}

func (h *ChatHandler) scheduleReminder(ctx context.Context, cl *client, msg IncomingMessage) {
	if h.reminders == nil {
		cl.SendError("reminders are not available")
		return
	}

	r, err := h.reminders.Schedule(ctx, reminder.Request{
		Time:      msg.Time,
		Message:   msg.Content,
		SoundRef:  msg.Sound,
		SessionID: cl.sessionID,
	})
	if err != nil {
		if errors.Is(err, reminder.ErrInvalidTimeFormat) {
			cl.SendError(reminder.ErrInvalidTimeFormat.Error())
			return
		}
		h.logger.Error("failed to schedule reminder", zap.String("session_id", cl.sessionID), zap.Error(err))
		cl.SendError("failed to set reminder")
		return
	}

	cl.write(OutgoingMessage{
		Type:    TypeMessage,
		Content: "✅ Reminder set at " + r.TimeOfDay,
		Data:    r,
	})
}

func (h *ChatHandler) pushTips(ctx context.Context, cl *client) {
	ticker := time.NewTicker(h.cfg.TipInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cl.write(OutgoingMessage{Type: TypeTip, Content: h.tips.Next()}); err != nil {
				return
			}
		}
	}
}
