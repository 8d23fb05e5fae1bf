// Package translate renders bot replies in the session language. It is best
// effort: any failure leaves the English text in place.
package translate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/circuitbreaker"
	"github.com/themobileprof/medibot-be/internal/privacy"
	"github.com/themobileprof/medibot-be/pkg/gtranslate"
)

// SourceLanguage is the language bot replies are authored in
const SourceLanguage = "en"

// Service wraps a gtranslate.Translator with a breaker and a per-call timeout
type Service struct {
	client  gtranslate.Translator
	breaker *circuitbreaker.Breaker
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates a translation service. A zero timeout means 5s.
func NewService(client gtranslate.Translator, breaker *circuitbreaker.Breaker, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = circuitbreaker.New("translate", circuitbreaker.Config{}, logger)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{client: client, breaker: breaker, timeout: timeout, logger: logger}
}

// Translate returns text in lang, or text unchanged when lang is the source
// language, the client is unset, or the call fails.
func (s *Service) Translate(ctx context.Context, text, lang string) string {
	if s == nil || s.client == nil || lang == "" || lang == SourceLanguage || text == "" {
		return text
	}

	var out string
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		translated, err := s.client.Translate(callCtx, privacy.SanitizeForAPI(text), SourceLanguage, lang)
		if err != nil {
			return err
		}
		out = translated
		return nil
	})
	if err != nil {
		s.logger.Warn("translation failed, using original text",
			zap.String("lang", lang),
			zap.String("text", privacy.SanitizeForLogging(text)),
			zap.Error(err))
		return text
	}
	if out == "" {
		return text
	}
	return out
}

// TranslateAll translates each line in order
func (s *Service) TranslateAll(ctx context.Context, lines []string, lang string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = s.Translate(ctx, line, lang)
	}
	return out
}
