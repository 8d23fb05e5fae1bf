package classifier

import (
	"regexp"
	"strings"

	"github.com/themobileprof/medibot-be/internal/fuzzy"
)

// Intent represents the classified intent of a user message
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentFarewell Intent = "farewell"
	IntentSymptom  Intent = "symptom_report"
	IntentUnknown  Intent = "unknown"
)

// Result contains the classification result. Matched holds the keyword or
// symptom that decided the intent.
type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Matched    string  `json:"matched,omitempty"`
}

// Option configures a Classifier
type Option func(*Classifier)

// WithFuzzyThreshold enables the fuzzy symptom fallback. Utterances whose
// filler-stripped text scores at least threshold (partial ratio, 0-100)
// against a known symptom are treated as symptom reports. 0 disables it.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Classifier) {
		c.fuzzyThreshold = threshold
	}
}

// Classifier performs rule-based intent classification
type Classifier struct {
	greetingPatterns []*regexp.Regexp
	farewellPatterns []*regexp.Regexp
	fillerPattern    *regexp.Regexp
	spaceNormalizer  *regexp.Regexp
	fuzzyThreshold   float64
}

// NewClassifier creates a new intent classifier
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		spaceNormalizer: regexp.MustCompile(`\s+`),
		greetingPatterns: compilePatterns([]string{
			`\b(hello|hi|hey)\b`,
			`\bgood (morning|evening)\b`,
		}),
		farewellPatterns: compilePatterns([]string{
			`\b(bye|goodbye)\b`,
			`\bsee you\b`,
			`\btake care\b`,
		}),
		// longest phrases first so "i am having" wins over shorter overlaps
		fillerPattern: regexp.MustCompile(`\b(i am having|suffering from|i have|feeling|got|my|in|the|of)\b`),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify determines the intent of the utterance. knownSymptoms are the
// lowercase catalog symptoms; any of them appearing inside the utterance
// makes it a symptom report. Greetings win over farewells, which win over
// symptoms.
func (c *Classifier) Classify(utterance string, knownSymptoms []string) Result {
	normalized := c.normalizeText(utterance)

	if normalized == "" {
		return Result{Intent: IntentUnknown, Confidence: 0.1}
	}

	if kw := firstMatch(normalized, c.greetingPatterns); kw != "" {
		return Result{Intent: IntentGreeting, Confidence: 0.9, Matched: kw}
	}

	if kw := firstMatch(normalized, c.farewellPatterns); kw != "" {
		return Result{Intent: IntentFarewell, Confidence: 0.9, Matched: kw}
	}

	for _, symptom := range knownSymptoms {
		key := strings.ToLower(strings.TrimSpace(symptom))
		if key != "" && strings.Contains(normalized, key) {
			return Result{Intent: IntentSymptom, Confidence: 0.85, Matched: key}
		}
	}

	if c.fuzzyThreshold > 0 {
		if res, ok := c.fuzzySymptom(normalized, knownSymptoms); ok {
			return res
		}
	}

	return Result{Intent: IntentUnknown, Confidence: 0.3}
}

// fuzzySymptom scores the utterance, stripped of filler phrases, against
// every known symptom and reports the best one at or above the threshold.
func (c *Classifier) fuzzySymptom(normalized string, knownSymptoms []string) (Result, bool) {
	stripped := fuzzy.Process(c.fillerPattern.ReplaceAllString(normalized, " "))
	if stripped == "" {
		return Result{}, false
	}

	best, bestKey := 0.0, ""
	for _, symptom := range knownSymptoms {
		key := fuzzy.Process(symptom)
		if key == "" {
			continue
		}
		if score := fuzzy.PartialRatio(stripped, key); score > best {
			best, bestKey = score, key
		}
	}
	if best < c.fuzzyThreshold {
		return Result{}, false
	}
	return Result{Intent: IntentSymptom, Confidence: best / 100 * 0.8, Matched: bestKey}, true
}

// normalizeText preprocesses input text for classification
func (c *Classifier) normalizeText(input string) string {
	text := strings.ToLower(input)
	text = strings.TrimSpace(text)
	text = c.spaceNormalizer.ReplaceAllString(text, " ")

	// Remove trailing punctuation
	text = strings.TrimRight(text, "!?.,;:")

	return strings.TrimSpace(text)
}

// firstMatch returns the text matched by the first matching pattern
func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, pattern := range patterns {
		if m := pattern.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// compilePatterns compiles a list of regex patterns
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}
