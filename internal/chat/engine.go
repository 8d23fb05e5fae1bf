package chat

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/catalog"
	"github.com/themobileprof/medibot-be/internal/classifier"
	"github.com/themobileprof/medibot-be/internal/diagnosis"
	"github.com/themobileprof/medibot-be/internal/fallback"
	"github.com/themobileprof/medibot-be/internal/language"
	"github.com/themobileprof/medibot-be/internal/memory"
	"github.com/themobileprof/medibot-be/internal/privacy"
	"github.com/themobileprof/medibot-be/internal/speech"
)

// DiagnosisHeader introduces the diagnosis table
const DiagnosisHeader = "🧾 Possible Diagnoses:"

var ErrEmptyMessage = errors.New("message is empty")

// Responder defines the interface for sending responses to any transport.
// Responders that also implement speech.AudioSink receive spoken replies.
type Responder interface {
	SendMessage(content string) error
	SendTable(rows []memory.TableRow) error
	SendError(message string) error
	SendDone() error
}

// ProcessRequest contains all data needed to process a message
type ProcessRequest struct {
	SessionID string
	Message   string
	Language  string // code or display name; empty keeps the session language
	Voice     bool
	Responder Responder
}

// Reply is the outcome of one turn
type Reply struct {
	SessionID  string            `json:"session_id"`
	Intent     classifier.Intent `json:"intent"`
	Language   string            `json:"language"`
	Lines      []string          `json:"lines"`
	Table      []memory.TableRow `json:"table,omitempty"`
	Diagnosis  *diagnosis.Result `json:"diagnosis,omitempty"`
	EndSession bool              `json:"end_session"`
}

// Engine handles core conversation logic independent of transport
type Engine struct {
	catalog    CatalogSource
	classifier ClassifierInterface
	diagnoser  DiagnoserInterface
	memory     MemoryInterface
	languages  LanguageInterface
	translator TranslatorInterface
	speaker    SpeakerInterface
	logger     *zap.Logger
}

// Interfaces for dependencies
type CatalogSource interface {
	Current() *catalog.Catalog
}

type ClassifierInterface interface {
	Classify(utterance string, knownSymptoms []string) classifier.Result
}

type DiagnoserInterface interface {
	Diagnose(query string, cat *catalog.Catalog) diagnosis.Result
	DiagnoseWith(query string, cat *catalog.Catalog, opts diagnosis.Options) diagnosis.Result
}

type MemoryInterface interface {
	AddMessage(sessionID string, msg memory.Message)
	SetLanguage(sessionID, code string)
	Language(sessionID string) string
}

type LanguageInterface interface {
	Validate(codeOrName string) language.ValidationResult
}

type TranslatorInterface interface {
	TranslateAll(ctx context.Context, lines []string, lang string) []string
}

type SpeakerInterface interface {
	Speak(ctx context.Context, lines []string, lang string, sink speech.AudioSink)
}

// Option configures optional collaborators
type Option func(*Engine)

// WithTranslator renders replies in the session language
func WithTranslator(t TranslatorInterface) Option {
	return func(e *Engine) { e.translator = t }
}

// WithSpeaker voices replies for requests that ask for it
func WithSpeaker(s SpeakerInterface) Option {
	return func(e *Engine) { e.speaker = s }
}

// NewEngine creates a new transport-agnostic chat engine
func NewEngine(
	cat CatalogSource,
	cls ClassifierInterface,
	diag DiagnoserInterface,
	mem MemoryInterface,
	lm LanguageInterface,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		catalog:    cat,
		classifier: cls,
		diagnoser:  diag,
		memory:     mem,
		languages:  lm,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify classifies utterance against the current catalog's symptoms
func (e *Engine) Classify(utterance string) classifier.Result {
	return e.classifier.Classify(utterance, e.catalog.Current().Symptoms())
}

// ClassifyIntent returns only the intent of utterance
func (e *Engine) ClassifyIntent(utterance string) classifier.Intent {
	return e.Classify(utterance).Intent
}

// Diagnose runs the aggregator over the current catalog
func (e *Engine) Diagnose(utterance string) diagnosis.Result {
	return e.diagnoser.Diagnose(utterance, e.catalog.Current())
}

// DiagnoseWith is Diagnose with per-call limits
func (e *Engine) DiagnoseWith(utterance string, opts diagnosis.Options) diagnosis.Result {
	return e.diagnoser.DiagnoseWith(utterance, e.catalog.Current(), opts)
}

// ProcessMessage runs one turn for a session and streams the reply to the
// request's Responder when one is set.
func (e *Engine) ProcessMessage(ctx context.Context, req ProcessRequest) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	lang := e.sessionLanguage(req.SessionID, req.Language)
	e.memory.AddMessage(req.SessionID, memory.Message{Role: memory.RoleUser, Content: message})

	if privacy.ContainsPII(message) {
		e.logger.Warn("potential PII in message", zap.String("session_id", req.SessionID))
	}

	cat := e.catalog.Current()
	result := e.classifier.Classify(message, cat.Symptoms())
	e.logger.Debug("intent classified",
		zap.String("session_id", req.SessionID),
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
		zap.String("message", privacy.SanitizeForLogging(message)))

	reply := &Reply{
		SessionID:  req.SessionID,
		Intent:     result.Intent,
		Language:   lang,
		EndSession: fallback.EndsSession(result.Intent),
	}

	var lines []string
	if result.Intent == classifier.IntentSymptom {
		diag := e.diagnoser.Diagnose(message, cat)
		reply.Diagnosis = &diag
		reply.Table = tableRows(diag)
		lines = []string{DiagnosisHeader, spokenTable(diag)}
	} else {
		lines = []string{fallback.GetReply(result.Intent).Content}
	}

	if e.translator != nil {
		lines = e.translator.TranslateAll(ctx, lines, lang)
	}
	reply.Lines = lines

	e.record(req.SessionID, reply)

	if req.Responder != nil {
		if err := deliver(req.Responder, reply); err != nil {
			return reply, err
		}
	}

	if req.Voice && e.speaker != nil {
		if sink, ok := req.Responder.(speech.AudioSink); ok {
			e.speaker.Speak(ctx, lines, lang, sink)
		}
	}

	return reply, nil
}

// sessionLanguage resolves the requested language, remembering it for the
// session. An empty request keeps whatever the session already uses.
func (e *Engine) sessionLanguage(sessionID, requested string) string {
	if requested == "" {
		requested = e.memory.Language(sessionID)
	}
	v := e.languages.Validate(requested)
	if v.UsedFallback && requested != "" {
		e.logger.Debug("unsupported language, using default",
			zap.String("requested", requested),
			zap.String("language", v.Code))
	}
	e.memory.SetLanguage(sessionID, v.Code)
	return v.Code
}

func (e *Engine) record(sessionID string, reply *Reply) {
	for i, line := range reply.Lines {
		e.memory.AddMessage(sessionID, memory.Message{Role: memory.RoleBot, Content: line})
		if i == 0 && len(reply.Table) > 0 {
			e.memory.AddMessage(sessionID, memory.Message{Role: memory.RoleTable, Table: reply.Table})
		}
	}
}

func deliver(r Responder, reply *Reply) error {
	for i, line := range reply.Lines {
		if err := r.SendMessage(line); err != nil {
			return err
		}
		if i == 0 && len(reply.Table) > 0 {
			if err := r.SendTable(reply.Table); err != nil {
				return err
			}
		}
	}
	return r.SendDone()
}

func tableRows(res diagnosis.Result) []memory.TableRow {
	rows := make([]memory.TableRow, res.Len())
	for i := range rows {
		rows[i] = memory.TableRow{Disease: res.Diseases[i], Treatment: res.Treatments[i]}
	}
	return rows
}

// spokenTable flattens the table into one sentence per row for speech
func spokenTable(res diagnosis.Result) string {
	var sb strings.Builder
	for i := 0; i < res.Len(); i++ {
		sb.WriteString("Disease: ")
		sb.WriteString(res.Diseases[i])
		sb.WriteString(". Treatment: ")
		sb.WriteString(res.Treatments[i])
		sb.WriteString(". ")
	}
	return sb.String()
}
