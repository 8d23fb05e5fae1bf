// Package speech voices bot replies. Audio is produced off the request path
// and handed to the transport as base64 MP3.
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/circuitbreaker"
	"github.com/themobileprof/medibot-be/pkg/gtts"
)

// AudioSink receives synthesized audio, e.g. a websocket client
type AudioSink interface {
	SendAudio(audioBase64 string) error
}

// AudioSinkFunc adapts a function to AudioSink
type AudioSinkFunc func(audioBase64 string) error

func (f AudioSinkFunc) SendAudio(audioBase64 string) error { return f(audioBase64) }

// Speaker synthesizes lines through a gtts.Synthesizer
type Speaker struct {
	synth   gtts.Synthesizer
	breaker *circuitbreaker.Breaker
	timeout time.Duration
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewSpeaker creates a speaker. A zero timeout means 15s per utterance.
func NewSpeaker(synth gtts.Synthesizer, breaker *circuitbreaker.Breaker, timeout time.Duration, logger *zap.Logger) *Speaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = circuitbreaker.New("speech", circuitbreaker.Config{}, logger)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Speaker{synth: synth, breaker: breaker, timeout: timeout, logger: logger}
}

// Speak voices lines in the background. Failures are logged and dropped.
func (s *Speaker) Speak(ctx context.Context, lines []string, lang string, sink AudioSink) {
	if s == nil || s.synth == nil || sink == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.SpeakSync(ctx, lines, lang, sink); err != nil {
			s.logger.Warn("speech playback skipped", zap.String("lang", lang), zap.Error(err))
		}
	}()
}

// SpeakSync voices lines and delivers the audio before returning
func (s *Speaker) SpeakSync(ctx context.Context, lines []string, lang string, sink AudioSink) error {
	text := strings.TrimSpace(strings.Join(lines, " "))
	if text == "" {
		return nil
	}

	var audio []byte
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var err error
		audio, err = s.synth.Synthesize(callCtx, text, ttsLanguage(lang))
		return err
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	if err := sink.SendAudio(base64.StdEncoding.EncodeToString(audio)); err != nil {
		return fmt.Errorf("deliver audio: %w", err)
	}
	s.logger.Debug("audio delivered", zap.String("lang", lang), zap.Int("bytes", len(audio)))
	return nil
}

// Wait blocks until background playback has finished
func (s *Speaker) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}

// ttsLanguage maps a language code to the TTS endpoint's tag
func ttsLanguage(code string) string {
	switch code {
	case "":
		return "en"
	case "zh":
		return "zh-CN"
	default:
		return code
	}
}
