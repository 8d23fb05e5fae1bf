package privacy

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "email redaction",
			input:    "My email is john.doe@example.com",
			expected: "My email is [EMAIL]",
		},
		{
			name:     "phone redaction",
			input:    "Call me at 555-123-4567",
			expected: "Call me at [PHONE]",
		},
		{
			name:     "SSN redaction",
			input:    "My SSN is 123-45-6789",
			expected: "My SSN is [SSN]",
		},
		{
			name:     "credit card redaction",
			input:    "Card: 4532 1234 5678 9010",
			expected: "Card: [CARD]",
		},
		{
			name:     "medical record number",
			input:    "my mrn: AB123456 and I have a fever",
			expected: "my [MEDICAL_ID] and I have a fever",
		},
		{
			name:     "multiple PII types",
			input:    "Email: test@test.com, Phone: 555-1234",
			expected: "Email: [EMAIL], Phone: [PHONE]",
		},
		{
			name:     "symptom text untouched",
			input:    "I have had a fever for 3 days",
			expected: "I have had a fever for 3 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RedactSensitiveData(tt.input)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestContainsPII(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "contains email", input: "Contact me at user@example.com", expected: true},
		{name: "contains phone", input: "My number is 555-1234", expected: true},
		{name: "no PII", input: "I'm feeling nauseous today", expected: false},
		{name: "reminder time", input: "remind me at 08:30", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ContainsPII(tt.input)
			if result != tt.expected {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSanitizeForLogging(t *testing.T) {
	longText := strings.Repeat("a", 250)
	result := SanitizeForLogging(longText)

	if len(result) > 200 {
		t.Errorf("result not truncated: got length %d, want <= 200", len(result))
	}
	if !strings.HasSuffix(result, "...") {
		t.Errorf("truncated text should end with '...'")
	}

	// multi-byte text must be cut on a character boundary
	hindi := strings.Repeat("बुखार ", 60)
	result = SanitizeForLogging(hindi)
	if !utf8.ValidString(result) {
		t.Errorf("truncation produced invalid UTF-8")
	}
	if utf8.RuneCountInString(result) != 200 {
		t.Errorf("got %d runes, want 200", utf8.RuneCountInString(result))
	}

	if got := SanitizeForLogging("short"); got != "short" {
		t.Errorf("short text changed: %q", got)
	}
}

func TestMaskPhoneNumber(t *testing.T) {
	if got := MaskPhoneNumber("+15551234567"); got != "+155***4567" {
		t.Errorf("MaskPhoneNumber = %q", got)
	}
	if got := MaskPhoneNumber("12345"); got != "***" {
		t.Errorf("MaskPhoneNumber short = %q", got)
	}
}
