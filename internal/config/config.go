// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the server reads at startup
type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	CatalogSource string
	DatabaseURL   string

	DiagnosisTopN        int
	DiagnosisMinScore    float64
	IntentFuzzyThreshold float64
	MatchWorkers         int

	DefaultLanguage string
	VoiceEnabled    bool

	TranslateBaseURL string
	TranslateTimeout time.Duration
	TTSBaseURL       string
	TTSTimeout       time.Duration

	ReminderSound string
	TipInterval   time.Duration

	RateLimitPerMin    float64
	RateLimitBurst     int
	WSMessagesPerMin   int
	CORSAllowedOrigins []string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	PublicBaseURL     string
}

// Load reads the environment. Malformed numbers and out-of-range values are
// reported together in one error wrapping ErrInvalidConfig.
func Load() (Config, error) {
	var p parser

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		CatalogSource: getEnv("CATALOG_SOURCE", "medical_data.csv"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		DiagnosisTopN:        p.getInt("DIAGNOSIS_TOP_N", 10),
		DiagnosisMinScore:    p.getFloat("DIAGNOSIS_MIN_SCORE", 60),
		IntentFuzzyThreshold: p.getFloat("INTENT_FUZZY_THRESHOLD", 0),
		MatchWorkers:         p.getInt("MATCH_WORKERS", 4),

		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		VoiceEnabled:    p.getBool("VOICE_ENABLED", true),

		TranslateBaseURL: getEnv("TRANSLATE_BASE_URL", ""),
		TranslateTimeout: p.getDuration("TRANSLATE_TIMEOUT", 5*time.Second),
		TTSBaseURL:       getEnv("TTS_BASE_URL", ""),
		TTSTimeout:       p.getDuration("TTS_TIMEOUT", 10*time.Second),

		ReminderSound: getEnv("REMINDER_SOUND", "alarm.mp3"),
		TipInterval:   p.getDuration("TIP_INTERVAL", 10*time.Second),

		RateLimitPerMin:    p.getFloat("RATE_LIMIT_PER_MIN", 100),
		RateLimitBurst:     p.getInt("RATE_LIMIT_BURST", 200),
		WSMessagesPerMin:   p.getInt("WS_MESSAGES_PER_MIN", 30),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
	}

	p.errs = append(p.errs, cfg.validate()...)
	if len(p.errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(p.errs...))
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	if c.DiagnosisTopN <= 0 {
		errs = append(errs, fmt.Errorf("DIAGNOSIS_TOP_N must be > 0, got %d", c.DiagnosisTopN))
	}
	if c.DiagnosisMinScore < 0 || c.DiagnosisMinScore > 100 {
		errs = append(errs, fmt.Errorf("DIAGNOSIS_MIN_SCORE must be within [0,100], got %v", c.DiagnosisMinScore))
	}
	if c.IntentFuzzyThreshold < 0 || c.IntentFuzzyThreshold > 100 {
		errs = append(errs, fmt.Errorf("INTENT_FUZZY_THRESHOLD must be within [0,100], got %v", c.IntentFuzzyThreshold))
	}
	if c.MatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("MATCH_WORKERS must be >= 1, got %d", c.MatchWorkers))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if c.TipInterval <= 0 {
		errs = append(errs, fmt.Errorf("TIP_INTERVAL must be positive, got %v", c.TipInterval))
	}
	if c.RateLimitPerMin <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MIN and RATE_LIMIT_BURST must be positive"))
	}
	if c.WSMessagesPerMin <= 0 {
		errs = append(errs, fmt.Errorf("WS_MESSAGES_PER_MIN must be positive, got %d", c.WSMessagesPerMin))
	}
	return errs
}

// TwilioEnabled reports whether the voice webhooks can be served
func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// PersistReminders reports whether reminders are stored in postgres
func (c Config) PersistReminders() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping blanks
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parser collects conversion errors so every bad key is reported at once
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) getFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) getBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return defaultValue
	}
	return v
}
