package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/pkg/twilio"
)

// SignatureValidator checks webhook signatures. *twilio.VoiceClient
// implements it.
type SignatureValidator interface {
	ValidateRequest(fullURL string, params url.Values, signature string) bool
}

// TwilioSignature rejects webhook calls not signed by Twilio. publicBaseURL
// is the externally visible scheme and host Twilio was configured with.
func TwilioSignature(v SignatureValidator, publicBaseURL string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		fullURL := publicBaseURL + c.Request.URL.RequestURI()
		if !v.ValidateRequest(fullURL, c.Request.PostForm, c.GetHeader(twilio.SignatureHeader)) {
			logger.Warn("rejected unsigned voice webhook",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
