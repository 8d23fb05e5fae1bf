package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/chat"
	"github.com/themobileprof/medibot-be/internal/classifier"
	"github.com/themobileprof/medibot-be/internal/diagnosis"
	"github.com/themobileprof/medibot-be/internal/fallback"
)

// Engine is the chat engine as seen by the HTTP layer
type Engine interface {
	ProcessMessage(ctx context.Context, req chat.ProcessRequest) (*chat.Reply, error)
	Classify(utterance string) classifier.Result
	DiagnoseWith(utterance string, opts diagnosis.Options) diagnosis.Result
}

// ChatHandler serves the stateless chat endpoints
type ChatHandler struct {
	engine      Engine
	defaultDiag diagnosis.Options
	logger      *zap.Logger
}

// NewChatHandler creates a chat handler. defaults fill in omitted top_n and
// min_score on /api/diagnose.
func NewChatHandler(engine Engine, defaults diagnosis.Options, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{engine: engine, defaultDiag: defaults, logger: logger}
}

// ChatRequest is one user turn
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language"`
}

// DiagnoseRequest asks for a diagnosis without a conversation
type DiagnoseRequest struct {
	Query    string   `json:"query"`
	TopN     *int     `json:"top_n"`
	MinScore *float64 `json:"min_score"`
}

// IntentRequest asks for the intent of a message
type IntentRequest struct {
	Message string `json:"message"`
}

// Chat runs one conversation turn
// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.engine.ProcessMessage(c.Request.Context(), chat.ProcessRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		Language:  req.Language,
	})
	if errors.Is(err, chat.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("chat turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback.GetErrorResponse().Content})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Diagnose matches a free-text query against the catalog
// POST /api/diagnose
func (h *ChatHandler) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := h.defaultDiag
	if req.TopN != nil {
		if *req.TopN <= 0 || *req.TopN > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_n must be between 1 and 100"})
			return
		}
		opts.TopN = *req.TopN
	}
	if req.MinScore != nil {
		if *req.MinScore < 0 || *req.MinScore > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be between 0 and 100"})
			return
		}
		opts.MinScore = *req.MinScore
	}

	c.JSON(http.StatusOK, h.engine.DiagnoseWith(req.Query, opts))
}

// Intent classifies a message
// POST /api/intent
func (h *ChatHandler) Intent(c *gin.Context) {
	var req IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.engine.Classify(req.Message))
}
