package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/medibot-be/internal/language"
)

// LanguageLister lists enabled languages
type LanguageLister interface {
	GetSupportedLanguages() []language.LanguageInfo
	Default() string
}

// TipPicker returns a health tip
type TipPicker interface {
	Next() string
}

// MetaHandler serves static reference data
type MetaHandler struct {
	languages LanguageLister
	tips      TipPicker
}

// NewMetaHandler creates a new meta handler
func NewMetaHandler(languages LanguageLister, tips TipPicker) *MetaHandler {
	return &MetaHandler{languages: languages, tips: tips}
}

// GetLanguages lists supported languages
// GET /api/languages
func (h *MetaHandler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.languages.GetSupportedLanguages(),
		"default":   h.languages.Default(),
	})
}

// GetTip returns a health tip
// GET /api/tips/random
func (h *MetaHandler) GetTip(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tip": h.tips.Next()})
}
