// Package privacy strips personal data from user text before it is logged or
// sent to third-party services such as the translation endpoint.
package privacy

import (
	"regexp"
	"unicode/utf8"
)

const maxLogRunes = 200

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; card and SSN go before phone so their digit groups are
// not half-consumed as phone numbers.
var rules = []rule{
	{regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`), "[CARD]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	{regexp.MustCompile(`(?i)\b(MRN|medical record|patient id)[-:\s]*[A-Z0-9]{6,}\b`), "[MEDICAL_ID]"},
	// 555-123-4567, (555) 123-4567, +1-555-123-4567, 555-1234
	{regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}|\b\d{3}[-.\s]\d{4}\b`), "[PHONE]"},
}

// RedactSensitiveData replaces PII in text with placeholders
func RedactSensitiveData(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}

// SanitizeForLogging redacts text and caps it at 200 characters
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)
	if utf8.RuneCountInString(redacted) <= maxLogRunes {
		return redacted
	}

	runes := []rune(redacted)
	return string(runes[:maxLogRunes-3]) + "..."
}

// SanitizeForAPI redacts text before it leaves the process
func SanitizeForAPI(text string) string {
	return RedactSensitiveData(text)
}

// ContainsPII checks if text contains potential PII
func ContainsPII(text string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// MaskPhoneNumber keeps the country prefix and last four digits of a caller
// number, e.g. "+155***4567".
func MaskPhoneNumber(number string) string {
	runes := []rune(number)
	if len(runes) <= 8 {
		return "***"
	}
	return string(runes[:4]) + "***" + string(runes[len(runes)-4:])
}
