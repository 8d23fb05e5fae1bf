package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/reminder"
)

// ReminderScheduler is the part of reminder.Scheduler the API needs
type ReminderScheduler interface {
	Schedule(ctx context.Context, req reminder.Request) (*reminder.Reminder, error)
	Cancel(ctx context.Context, id string) error
	List(sessionID string) []reminder.Reminder
}

// ReminderHandler handles medicine reminder endpoints
type ReminderHandler struct {
	scheduler ReminderScheduler
	logger    *zap.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(scheduler ReminderScheduler, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{scheduler: scheduler, logger: logger}
}

// CreateReminderRequest represents a reminder creation request
type CreateReminderRequest struct {
	Time      string `json:"time" binding:"required"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Sound     string `json:"sound"`
}

// CreateReminder schedules a reminder
// POST /api/reminders
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.scheduler.Schedule(c.Request.Context(), reminder.Request{
		Time:      req.Time,
		Message:   req.Message,
		SoundRef:  req.Sound,
		SessionID: req.SessionID,
	})
	if errors.Is(err, reminder.ErrInvalidTimeFormat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": reminder.ErrInvalidTimeFormat.Error()})
		return
	}
	if errors.Is(err, reminder.ErrStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reminders are unavailable"})
		return
	}
	if err != nil {
		h.logger.Error("failed to schedule reminder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set reminder"})
		return
	}

	c.JSON(http.StatusCreated, r)
}

// GetReminders lists pending reminders
// GET /api/reminders?session_id=abc
func (h *ReminderHandler) GetReminders(c *gin.Context) {
	reminders := h.scheduler.List(c.Query("session_id"))
	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
		"count":     len(reminders),
	})
}

// DeleteReminder cancels a pending reminder
// DELETE /api/reminders/:id
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	err := h.scheduler.Cancel(c.Request.Context(), c.Param("id"))
	if errors.Is(err, reminder.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to cancel reminder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted successfully"})
}
