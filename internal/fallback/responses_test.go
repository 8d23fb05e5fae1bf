package fallback

import (
	"testing"

	"github.com/themobileprof/medibot-be/internal/classifier"
)

func TestGetReply(t *testing.T) {
	tests := []struct {
		name           string
		intent         classifier.Intent
		expectedAction string
		expectedText   string
	}{
		{
			name:           "greeting",
			intent:         classifier.IntentGreeting,
			expectedAction: "none",
			expectedText:   "Hello! How can I help you today?",
		},
		{
			name:           "symptom",
			intent:         classifier.IntentSymptom,
			expectedAction: "diagnose",
			expectedText:   "Let me check possible causes and treatments for your symptom...",
		},
		{
			name:           "farewell",
			intent:         classifier.IntentFarewell,
			expectedAction: "end_session",
			expectedText:   "Goodbye! Take care.",
		},
		{
			name:           "unknown",
			intent:         classifier.IntentUnknown,
			expectedAction: "rephrase",
			expectedText:   "I'm not sure I understand. Could you please rephrase?",
		},
		{
			name:           "unrecognised intent falls back to unknown",
			intent:         classifier.Intent("scheduling"),
			expectedAction: "rephrase",
			expectedText:   "I'm not sure I understand. Could you please rephrase?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetReply(tt.intent)
			if got.Action != tt.expectedAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.expectedAction)
			}
			if got.Content != tt.expectedText {
				t.Errorf("Content = %q, want %q", got.Content, tt.expectedText)
			}
		})
	}
}

func TestGetErrorResponse(t *testing.T) {
	if got := GetErrorResponse(); got.Action != "retry" || got.Content == "" {
		t.Errorf("GetErrorResponse() = %+v", got)
	}
}

func TestEndsSession(t *testing.T) {
	if !EndsSession(classifier.IntentFarewell) {
		t.Error("farewell should end the session")
	}
	for _, intent := range []classifier.Intent{classifier.IntentGreeting, classifier.IntentSymptom, classifier.IntentUnknown} {
		if EndsSession(intent) {
			t.Errorf("%s should not end the session", intent)
		}
	}
}
