package language

import (
	"sort"
	"strings"
	"sync"
)

const DefaultLanguage = "en"

// LanguageInfo contains information about a supported language
type LanguageInfo struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	NativeName     string `json:"native_name"`
	SpeechCode     string `json:"speech_code"`
	Voice          string `json:"voice"`
	IsEnabled      bool   `json:"is_enabled"`
	IsExperimental bool   `json:"is_experimental"`
}

// ValidationResult represents the result of language validation
type ValidationResult struct {
	Code         string `json:"code"`
	UsedFallback bool   `json:"used_fallback"`
}

// Manager handles language support and validation
type Manager struct {
	languages   map[string]*LanguageInfo
	defaultCode string
	mu          sync.RWMutex
}

func builtinLanguages() map[string]*LanguageInfo {
	return map[string]*LanguageInfo{
		"en": {Code: "en", Name: "English", NativeName: "English", SpeechCode: "en-US", Voice: "en-US-GuyNeural", IsEnabled: true},
		"es": {Code: "es", Name: "Spanish", NativeName: "Español", SpeechCode: "es-ES", Voice: "es-ES-AlvaroNeural", IsEnabled: true},
		"fr": {Code: "fr", Name: "French", NativeName: "Français", SpeechCode: "fr-FR", Voice: "fr-FR-HenriNeural", IsEnabled: true},
		"de": {Code: "de", Name: "German", NativeName: "Deutsch", SpeechCode: "de-DE", Voice: "de-DE-KarlNeural", IsEnabled: true},
		"hi": {Code: "hi", Name: "Hindi", NativeName: "हिन्दी", SpeechCode: "hi-IN", Voice: "hi-IN-SwaraNeural", IsEnabled: true},
		"zh": {Code: "zh", Name: "Chinese", NativeName: "中文", SpeechCode: "zh-CN", Voice: "zh-CN-YunxiNeural", IsEnabled: true},
		"ja": {Code: "ja", Name: "Japanese", NativeName: "日本語", SpeechCode: "ja-JP", Voice: "ja-JP-KeitaNeural", IsEnabled: true},
		"ar": {Code: "ar", Name: "Arabic", NativeName: "العربية", SpeechCode: "ar-SA", Voice: "ar-SA-HamedNeural", IsEnabled: true},
		"ta": {Code: "ta", Name: "Tamil", NativeName: "தமிழ்", SpeechCode: "ta-IN", Voice: "ta-IN-ValluvarNeural", IsExperimental: true},
	}
}

// NewManager creates a language manager with the built-in languages. An
// unknown defaultCode falls back to English.
func NewManager(defaultCode string) *Manager {
	m := &Manager{languages: builtinLanguages(), defaultCode: DefaultLanguage}
	if lang, ok := m.languages[strings.ToLower(defaultCode)]; ok && lang.IsEnabled {
		m.defaultCode = lang.Code
	}
	return m
}

// Default returns the fallback language code
func (m *Manager) Default() string {
	return m.defaultCode
}

// IsSupported checks if a language code is supported and enabled
func (m *Manager) IsSupported(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lang, exists := m.languages[code]
	return exists && lang.IsEnabled
}

// Validate validates a language code or display name ("Spanish") and
// returns the code to use. Unsupported input falls back to the default.
func (m *Manager) Validate(codeOrName string) ValidationResult {
	if code, ok := m.Resolve(codeOrName); ok {
		return ValidationResult{Code: code}
	}

	return ValidationResult{
		Code:         m.defaultCode,
		UsedFallback: true,
	}
}

// Resolve maps an enabled language code or display name to its code
func (m *Manager) Resolve(codeOrName string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(codeOrName))
	if key == "" {
		return "", false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if lang, ok := m.languages[key]; ok && lang.IsEnabled {
		return lang.Code, true
	}
	for _, lang := range m.languages {
		if !lang.IsEnabled {
			continue
		}
		if strings.ToLower(lang.Name) == key || strings.ToLower(lang.NativeName) == key {
			return lang.Code, true
		}
	}
	return "", false
}

// GetLanguageInfo returns information about a language
func (m *Manager) GetLanguageInfo(code string) (LanguageInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lang, exists := m.languages[code]
	if !exists {
		return LanguageInfo{}, false
	}

	return *lang, true
}

// VoiceFor returns the neural voice name for a language, or the default
// language's voice when the code is unknown
func (m *Manager) VoiceFor(code string) string {
	if info, ok := m.GetLanguageInfo(code); ok {
		return info.Voice
	}
	info, _ := m.GetLanguageInfo(m.defaultCode)
	return info.Voice
}

// EnableLanguage enables a language
func (m *Manager) EnableLanguage(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lang, exists := m.languages[code]; exists {
		lang.IsEnabled = true
	}
}

// DisableLanguage disables a language (cannot disable default language)
func (m *Manager) DisableLanguage(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if code == m.defaultCode {
		return
	}

	if lang, exists := m.languages[code]; exists {
		lang.IsEnabled = false
	}
}

// GetSupportedLanguages returns all enabled languages ordered by name
func (m *Manager) GetSupportedLanguages() []LanguageInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	languages := make([]LanguageInfo, 0, len(m.languages))
	for _, lang := range m.languages {
		if lang.IsEnabled {
			languages = append(languages, *lang)
		}
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Name < languages[j].Name })

	return languages
}
