package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/chat"
	"github.com/themobileprof/medibot-be/internal/language"
	"github.com/themobileprof/medibot-be/internal/privacy"
	"github.com/themobileprof/medibot-be/pkg/twilio"
)

const (
	voiceGreeting = "Welcome to MediBot, your health assistant. Tell me how you are feeling."
	voicePrompt   = "Please describe your symptoms after the tone."
	voiceContinue = "Is there anything else you are feeling?"
	voiceNoInput  = "I didn't hear anything. Please call back when you're ready."
	voiceRetry    = "I didn't catch that. Please try again."
	voiceGoodbye  = "Thank you for calling MediBot. Take care!"
	voiceExpired  = "Session expired. Please call again."

	gatherPath    = "/api/voice/gather"
	gatherTimeout = 5
)

// VoiceMemory drops per-session state once a call ends
type VoiceMemory interface {
	EndSession(sessionID string)
}

// LanguageValidator resolves a requested language to a supported code
type LanguageValidator interface {
	Validate(codeOrName string) language.ValidationResult
}

// TextTranslator translates prompt text into the caller's language
type TextTranslator interface {
	Translate(ctx context.Context, text, lang string) string
}

// VoiceHandler handles Twilio Voice webhooks
type VoiceHandler struct {
	engine       Engine
	memory       VoiceMemory
	languages    LanguageValidator
	translator   TextTranslator
	callSessions *sync.Map // callSid -> *voiceSession
	logger       *zap.Logger
}

// voiceSession stores data for an active voice call
type voiceSession struct {
	CallSid  string
	Language string
	From     string
}

// NewVoiceHandler creates a new voice handler. translator may be nil.
func NewVoiceHandler(engine Engine, memory VoiceMemory, languages LanguageValidator, translator TextTranslator, logger *zap.Logger) *VoiceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceHandler{
		engine:       engine,
		memory:       memory,
		languages:    languages,
		translator:   translator,
		callSessions: &sync.Map{},
		logger:       logger,
	}
}

// ActiveCalls returns the number of calls with live sessions
func (h *VoiceHandler) ActiveCalls() int {
	n := 0
	h.callSessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// HandleIncoming answers a call, greets the caller and gathers speech
// POST /api/voice/incoming?lang=es
func (h *VoiceHandler) HandleIncoming(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	params := twilio.ParseCall(c.Request.PostForm)
	if params.CallSid == "" {
		c.String(http.StatusBadRequest, "Missing CallSid")
		return
	}

	lang := h.languages.Validate(c.Query("lang")).Code
	session := &voiceSession{
		CallSid:  params.CallSid,
		Language: lang,
		From:     privacy.MaskPhoneNumber(params.From),
	}
	h.callSessions.Store(params.CallSid, session)

	h.logger.Info("incoming call",
		zap.String("call_sid", params.CallSid),
		zap.String("from", session.From),
		zap.String("language", lang))

	ctx := c.Request.Context()
	loc := twilio.LocaleFor(lang)
	twiml := twilio.NewTwiMLResponse().
		Say(h.prompt(ctx, voiceGreeting, lang), loc).
		Gather(gatherURL(params.CallSid), loc, gatherTimeout).
		Say(h.prompt(ctx, voicePrompt, lang), loc).
		EndGather().
		Say(h.prompt(ctx, voiceNoInput, lang), loc).
		Hangup().
		String()

	writeTwiML(c, twiml)
}

// HandleGather runs the caller's transcribed speech through the chat engine
// and speaks the reply
// POST /api/voice/gather?callSid=CA123
func (h *VoiceHandler) HandleGather(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	params := twilio.ParseCall(c.Request.PostForm)
	callSid := c.Query("callSid")
	if callSid == "" {
		callSid = params.CallSid
	}

	val, ok := h.callSessions.Load(callSid)
	if !ok {
		h.logger.Warn("gather for unknown call", zap.String("call_sid", callSid))
		writeTwiML(c, twilio.NewTwiMLResponse().
			Say(voiceExpired, twilio.Locale{}).
			Hangup().
			String())
		return
	}
	session := val.(*voiceSession)

	ctx := c.Request.Context()
	loc := twilio.LocaleFor(session.Language)

	speech := strings.TrimSpace(params.SpeechResult)
	if speech == "" {
		writeTwiML(c, twilio.NewTwiMLResponse().
			Say(h.prompt(ctx, voiceRetry, session.Language), loc).
			Redirect(gatherURL(callSid)).
			String())
		return
	}

	h.logger.Debug("gathered speech",
		zap.String("call_sid", callSid),
		zap.Float64("confidence", params.Confidence),
		zap.String("speech", privacy.SanitizeForLogging(speech)))

	reply, err := h.engine.ProcessMessage(ctx, chat.ProcessRequest{
		SessionID: callSessionID(callSid),
		Message:   speech,
		Language:  session.Language,
	})
	if err != nil {
		h.logger.Error("failed to process call speech", zap.String("call_sid", callSid), zap.Error(err))
		writeTwiML(c, twilio.NewTwiMLResponse().
			Say(h.prompt(ctx, "Sorry, I encountered an error. Please try again.", session.Language), loc).
			Hangup().
			String())
		return
	}

	resp := twilio.NewTwiMLResponse().Say(spokenReply(reply), loc)
	if reply.EndSession {
		h.endCall(callSid)
		writeTwiML(c, resp.Say(h.prompt(ctx, voiceGoodbye, session.Language), loc).Hangup().String())
		return
	}

	writeTwiML(c, resp.
		Gather(gatherURL(callSid), loc, gatherTimeout).
		Say(h.prompt(ctx, voiceContinue, session.Language), loc).
		EndGather().
		Say(h.prompt(ctx, voiceGoodbye, session.Language), loc).
		Hangup().
		String())
}

// HandleStatus cleans up once Twilio reports the call has ended
// POST /api/voice/status
func (h *VoiceHandler) HandleStatus(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	params := twilio.ParseCall(c.Request.PostForm)
	h.logger.Info("call status",
		zap.String("call_sid", params.CallSid),
		zap.String("status", string(params.CallStatus)))

	if params.CallStatus.Finished() {
		h.endCall(params.CallSid)
	}
	c.String(http.StatusOK, "OK")
}

func (h *VoiceHandler) endCall(callSid string) {
	h.callSessions.Delete(callSid)
	if h.memory != nil {
		h.memory.EndSession(callSessionID(callSid))
	}
}

func (h *VoiceHandler) prompt(ctx context.Context, text, lang string) string {
	if h.translator == nil {
		return text
	}
	return h.translator.Translate(ctx, text, lang)
}

// spokenReply drops the table header, which only makes sense on screen
func spokenReply(reply *chat.Reply) string {
	lines := reply.Lines
	if reply.Diagnosis != nil && len(lines) > 1 {
		lines = lines[1:]
	}
	return strings.Join(lines, " ")
}

func callSessionID(callSid string) string {
	return "call:" + callSid
}

func gatherURL(callSid string) string {
	return gatherPath + "?callSid=" + url.QueryEscape(callSid)
}

func writeTwiML(c *gin.Context, twiml string) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
