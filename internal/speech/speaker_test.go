package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/themobileprof/medibot-be/internal/circuitbreaker"
)

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	langs []string
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.langs = append(f.langs, lang)
	return f.audio, f.err
}

type recordingSink struct {
	mu     sync.Mutex
	frames []string
	err    error
}

func (r *recordingSink) SendAudio(audio string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, audio)
	return r.err
}

func TestSpeaker_SpeakSync(t *testing.T) {
	synth := &fakeSynth{audio: []byte("ID3mp3")}
	sink := &recordingSink{}
	s := NewSpeaker(synth, nil, 0, nil)

	err := s.SpeakSync(context.Background(), []string{"🧾 Possible Diagnoses:", "Disease: Flu. Treatment: Rest. "}, "zh", sink)
	if err != nil {
		t.Fatalf("SpeakSync: %v", err)
	}

	if len(synth.texts) != 1 || synth.texts[0] != "🧾 Possible Diagnoses: Disease: Flu. Treatment: Rest." {
		t.Errorf("synthesized text = %q", synth.texts)
	}
	if synth.langs[0] != "zh-CN" {
		t.Errorf("lang = %q, want zh-CN", synth.langs[0])
	}
	if len(sink.frames) != 1 || sink.frames[0] != base64.StdEncoding.EncodeToString([]byte("ID3mp3")) {
		t.Errorf("frames = %q", sink.frames)
	}
}

func TestSpeaker_SpeakSyncErrors(t *testing.T) {
	tests := []struct {
		name     string
		synthErr error
		sinkErr  error
	}{
		{name: "synthesis fails", synthErr: errors.New("403")},
		{name: "delivery fails", sinkErr: errors.New("connection closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpeaker(&fakeSynth{err: tt.synthErr}, nil, time.Second, nil)
			if err := s.SpeakSync(context.Background(), []string{"hello"}, "en", &recordingSink{err: tt.sinkErr}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSpeaker_BlankLinesSkipSynthesis(t *testing.T) {
	synth := &fakeSynth{}
	s := NewSpeaker(synth, nil, 0, nil)
	if err := s.SpeakSync(context.Background(), []string{" ", ""}, "en", &recordingSink{}); err != nil {
		t.Fatalf("SpeakSync: %v", err)
	}
	if len(synth.texts) != 0 {
		t.Errorf("synthesizer called for blank text")
	}
}

func TestSpeaker_SpeakIsAsync(t *testing.T) {
	synth := &fakeSynth{err: errors.New("down")}
	breaker := circuitbreaker.New("speech", circuitbreaker.Config{MaxFailures: 1, ResetTimeout: time.Hour}, nil)
	s := NewSpeaker(synth, breaker, 0, nil)
	sink := &recordingSink{}

	s.Speak(context.Background(), []string{"one"}, "en", sink)
	s.Wait()
	s.Speak(context.Background(), []string{"two"}, "en", sink)
	s.Wait()

	if len(synth.texts) != 1 {
		t.Errorf("synth calls = %d, want 1 after breaker opened", len(synth.texts))
	}
	if len(sink.frames) != 0 {
		t.Errorf("frames delivered despite failure: %d", len(sink.frames))
	}
}

func TestSpeaker_NilSafe(t *testing.T) {
	var s *Speaker
	s.Speak(context.Background(), []string{"hi"}, "en", AudioSinkFunc(func(string) error { return nil }))
	s.Wait()

	NewSpeaker(nil, nil, 0, nil).Speak(context.Background(), []string{"hi"}, "en", &recordingSink{})
}
