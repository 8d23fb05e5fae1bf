package twilio

import (
	"net/url"
	"strings"
	"testing"
)

func TestTwiMLResponse(t *testing.T) {
	twiml := NewTwiMLResponse().
		Say("Hello! How can I help you today?", Locale{}).
		Gather("/api/voice/gather?callSid=CA1&x=1", LocaleFor("fr"), 0).
		Say("Disease: Flu & cold. Treatment: <rest>.", LocaleFor("fr")).
		EndGather().
		Pause(0).
		Hangup().
		String()

	wants := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<Response><Say voice="Polly.Joanna" language="en-US">Hello! How can I help you today?</Say>`,
		`<Gather action="/api/voice/gather?callSid=CA1&amp;x=1" input="speech" language="fr-FR" timeout="5" speechTimeout="auto">`,
		`Disease: Flu &amp; cold. Treatment: &lt;rest&gt;.`,
		`</Gather><Pause length="1"/><Hangup/></Response>`,
	}
	for _, want := range wants {
		if !strings.Contains(twiml, want) {
			t.Errorf("TwiML missing %q\n%s", want, twiml)
		}
	}
}

func TestTwiMLRedirect(t *testing.T) {
	twiml := NewTwiMLResponse().Redirect("/api/voice/gather?a=1&b=2").String()
	if !strings.Contains(twiml, "<Redirect>/api/voice/gather?a=1&amp;b=2</Redirect>") {
		t.Errorf("Redirect = %s", twiml)
	}
}

func TestValidateRequest(t *testing.T) {
	client := NewVoiceClient(VoiceConfig{AuthToken: "secret"})
	fullURL := "https://medibot.example.com/api/voice/incoming"
	params := url.Values{
		"CallSid": {"CA123"},
		"From":    {"+15551234567"},
		"To":      {"+15557654321"},
	}
	sig := client.Sign(fullURL, params)

	tests := []struct {
		name      string
		client    *VoiceClient
		url       string
		params    url.Values
		signature string
		want      bool
	}{
		{name: "valid", client: client, url: fullURL, params: params, signature: sig, want: true},
		{name: "tampered param", client: client, url: fullURL, params: url.Values{"CallSid": {"CA999"}, "From": {"+15551234567"}, "To": {"+15557654321"}}, signature: sig},
		{name: "different url", client: client, url: fullURL + "?x=1", params: params, signature: sig},
		{name: "missing signature", client: client, url: fullURL, params: params},
		{name: "no auth token", client: NewVoiceClient(VoiceConfig{}), url: fullURL, params: params, signature: sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.ValidateRequest(tt.url, tt.params, tt.signature); got != tt.want {
				t.Errorf("ValidateRequest = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignIsOrderIndependent(t *testing.T) {
	client := NewVoiceClient(VoiceConfig{AuthToken: "secret"})
	a := client.Sign("https://x/y", url.Values{"B": {"2"}, "A": {"1"}})
	b := client.Sign("https://x/y", url.Values{"A": {"1"}, "B": {"2"}})
	if a != b || a == "" {
		t.Errorf("signatures differ: %q vs %q", a, b)
	}
}

func TestParseCall(t *testing.T) {
	values := url.Values{
		"CallSid":      {"CA123"},
		"From":         {"+1234567890"},
		"CallStatus":   {"in-progress"},
		"SpeechResult": {"I have a headache"},
		"Confidence":   {"0.92"},
	}

	params := ParseCall(values)
	if params.CallSid != "CA123" || params.From != "+1234567890" {
		t.Errorf("params = %+v", params)
	}
	if params.CallStatus != CallStatusInProgress || params.CallStatus.Finished() {
		t.Errorf("status = %s", params.CallStatus)
	}
	if params.SpeechResult != "I have a headache" || params.Confidence != 0.92 {
		t.Errorf("speech = %q (%v)", params.SpeechResult, params.Confidence)
	}
}

func TestCallStatusFinished(t *testing.T) {
	for _, s := range []CallStatus{CallStatusCompleted, CallStatusBusy, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled} {
		if !s.Finished() {
			t.Errorf("%s should be finished", s)
		}
	}
	for _, s := range []CallStatus{CallStatusQueued, CallStatusRinging, CallStatusInProgress} {
		if s.Finished() {
			t.Errorf("%s should not be finished", s)
		}
	}
}

func TestLocaleFor(t *testing.T) {
	tests := []struct {
		lang string
		want Locale
	}{
		{"en", Locale{Voice: "Polly.Joanna", Language: "en-US"}},
		{"es", Locale{Voice: "Polly.Lucia", Language: "es-ES"}},
		{"ja", Locale{Voice: "Polly.Mizuki", Language: "ja-JP"}},
		{"ta", Locale{Voice: "Polly.Joanna", Language: "en-US"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			if got := LocaleFor(tt.lang); got != tt.want {
				t.Errorf("LocaleFor(%q) = %+v, want %+v", tt.lang, got, tt.want)
			}
		})
	}
}
