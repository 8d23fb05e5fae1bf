// Package fallback holds the canned bot replies for each intent. Replies are
// written in English and translated by the caller.
package fallback

import (
	"github.com/themobileprof/medibot-be/internal/classifier"
)

// Response represents a canned reply
type Response struct {
	Content string
	Action  string // "none", "diagnose", "end_session", "rephrase"
}

var replies = map[classifier.Intent]Response{
	classifier.IntentGreeting: {
		Content: "Hello! How can I help you today?",
		Action:  "none",
	},
	classifier.IntentSymptom: {
		Content: "Let me check possible causes and treatments for your symptom...",
		Action:  "diagnose",
	},
	classifier.IntentFarewell: {
		Content: "Goodbye! Take care.",
		Action:  "end_session",
	},
	classifier.IntentUnknown: {
		Content: "I'm not sure I understand. Could you please rephrase?",
		Action:  "rephrase",
	},
}

// GetReply returns the canned reply for an intent. Unrecognised intents get
// the unknown reply.
func GetReply(intent classifier.Intent) Response {
	if response, ok := replies[intent]; ok {
		return response
	}
	return replies[classifier.IntentUnknown]
}

// GetErrorResponse is sent when a turn cannot be processed at all
func GetErrorResponse() Response {
	return Response{
		Content: "I'm sorry, I'm having technical difficulties. Please try again.",
		Action:  "retry",
	}
}

// EndsSession reports whether the intent closes the conversation
func EndsSession(intent classifier.Intent) bool {
	return intent == classifier.IntentFarewell
}
