// Package twilio renders TwiML for voice webhooks and verifies that those
// webhooks were signed by Twilio.
package twilio

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"net/url"
	"sort"
	"strconv"
)

// SignatureHeader carries Twilio's request signature
const SignatureHeader = "X-Twilio-Signature"

// VoiceClient handles Twilio Voice operations
type VoiceClient struct {
	accountSID  string
	authToken   string
	phoneNumber string
}

// VoiceConfig holds Twilio Voice configuration
type VoiceConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// NewVoiceClient creates a new Twilio Voice client
func NewVoiceClient(config VoiceConfig) *VoiceClient {
	return &VoiceClient{
		accountSID:  config.AccountSID,
		authToken:   config.AuthToken,
		phoneNumber: config.PhoneNumber,
	}
}

// PhoneNumber returns the number calls are placed to
func (c *VoiceClient) PhoneNumber() string { return c.phoneNumber }

// Sign computes the signature Twilio sends for a POST to fullURL with form
// params: base64(HMAC-SHA1(url + sorted key/value pairs)).
func (c *VoiceClient) Sign(fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data bytes.Buffer
	data.WriteString(fullURL)
	for _, k := range keys {
		values := append([]string(nil), params[k]...)
		sort.Strings(values)
		for _, v := range values {
			data.WriteString(k)
			data.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(c.authToken))
	mac.Write(data.Bytes())
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateRequest reports whether signature matches the request
func (c *VoiceClient) ValidateRequest(fullURL string, params url.Values, signature string) bool {
	if c.authToken == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(c.Sign(fullURL, params)))
}

// TwiMLResponse builds a TwiML document verb by verb
type TwiMLResponse struct {
	buf bytes.Buffer
}

// NewTwiMLResponse creates a new TwiML response builder
func NewTwiMLResponse() *TwiMLResponse {
	t := &TwiMLResponse{}
	t.buf.WriteString(xml.Header)
	t.buf.WriteString(`<Response>`)
	return t
}

func (t *TwiMLResponse) attr(name, value string) {
	t.buf.WriteString(` ` + name + `="`)
	xml.EscapeText(&t.buf, []byte(value))
	t.buf.WriteString(`"`)
}

func (t *TwiMLResponse) text(s string) {
	xml.EscapeText(&t.buf, []byte(s))
}

// Say speaks text in the given locale. A zero Locale means English.
func (t *TwiMLResponse) Say(text string, loc Locale) *TwiMLResponse {
	if loc.Voice == "" {
		loc = defaultLocale
	}
	t.buf.WriteString(`<Say`)
	t.attr("voice", loc.Voice)
	t.attr("language", loc.Language)
	t.buf.WriteString(`>`)
	t.text(text)
	t.buf.WriteString(`</Say>`)
	return t
}

// Gather opens a speech Gather posting the transcript to action
func (t *TwiMLResponse) Gather(action string, loc Locale, timeout int) *TwiMLResponse {
	if loc.Language == "" {
		loc = defaultLocale
	}
	if timeout <= 0 {
		timeout = 5
	}
	t.buf.WriteString(`<Gather`)
	t.attr("action", action)
	t.attr("input", "speech")
	t.attr("language", loc.Language)
	t.attr("timeout", strconv.Itoa(timeout))
	t.attr("speechTimeout", "auto")
	t.buf.WriteString(`>`)
	return t
}

// EndGather closes a Gather verb
func (t *TwiMLResponse) EndGather() *TwiMLResponse {
	t.buf.WriteString(`</Gather>`)
	return t
}

// Redirect adds a Redirect verb
func (t *TwiMLResponse) Redirect(target string) *TwiMLResponse {
	t.buf.WriteString(`<Redirect>`)
	t.text(target)
	t.buf.WriteString(`</Redirect>`)
	return t
}

// Pause adds a Pause verb
func (t *TwiMLResponse) Pause(seconds int) *TwiMLResponse {
	if seconds <= 0 {
		seconds = 1
	}
	t.buf.WriteString(`<Pause length="` + strconv.Itoa(seconds) + `"/>`)
	return t
}

// Hangup adds a Hangup verb
func (t *TwiMLResponse) Hangup() *TwiMLResponse {
	t.buf.WriteString(`<Hangup/>`)
	return t
}

// String returns the complete TwiML XML
func (t *TwiMLResponse) String() string {
	return t.buf.String() + `</Response>`
}

// CallStatus represents the status of a Twilio call
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// Finished reports whether the call has ended
func (s CallStatus) Finished() bool {
	switch s {
	case CallStatusCompleted, CallStatusBusy, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// CallParams are the fields Twilio posts to call webhooks
type CallParams struct {
	CallSid      string
	From         string
	To           string
	CallStatus   CallStatus
	SpeechResult string
	Confidence   float64
}

// ParseCall reads webhook form values
func ParseCall(values url.Values) CallParams {
	confidence, _ := strconv.ParseFloat(values.Get("Confidence"), 64)
	return CallParams{
		CallSid:      values.Get("CallSid"),
		From:         values.Get("From"),
		To:           values.Get("To"),
		CallStatus:   CallStatus(values.Get("CallStatus")),
		SpeechResult: values.Get("SpeechResult"),
		Confidence:   confidence,
	}
}

// Locale pairs a Polly voice with the language tag Twilio expects
type Locale struct {
	Voice    string
	Language string
}

var defaultLocale = Locale{Voice: "Polly.Joanna", Language: "en-US"}

var locales = map[string]Locale{
	"en": defaultLocale,
	"es": {Voice: "Polly.Lucia", Language: "es-ES"},
	"fr": {Voice: "Polly.Celine", Language: "fr-FR"},
	"de": {Voice: "Polly.Vicki", Language: "de-DE"},
	"hi": {Voice: "Polly.Aditi", Language: "hi-IN"},
	"zh": {Voice: "Polly.Zhiyu", Language: "cmn-CN"},
	"ja": {Voice: "Polly.Mizuki", Language: "ja-JP"},
	"ar": {Voice: "Polly.Zeina", Language: "arb"},
}

// LocaleFor maps a language code to a voice and tag, defaulting to English
func LocaleFor(language string) Locale {
	if loc, ok := locales[language]; ok {
		return loc
	}
	return defaultLocale
}
