// Package gtts synthesizes speech with Google Translate's text-to-speech
// endpoint. Text is sent in chunks of at most 100 characters and the MP3
// responses are concatenated.
package gtts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxChunkLength is the endpoint's per-request character limit
const MaxChunkLength = 100

const sentenceMarks = ".!?;:,。！？、"

var ErrNoText = errors.New("nothing to synthesize")

// Synthesizer turns text into MP3 audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// HTTPClient implements Synthesizer over HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Synthesizer = (*HTTPClient)(nil)

// Config holds configuration for the TTS client
type Config struct {
	BaseURL string        // Default: https://translate.google.com
	Timeout time.Duration // Default: 10s
}

// NewHTTPClient creates a new TTS client
func NewHTTPClient(config Config) *HTTPClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://translate.google.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// Synthesize returns MP3 audio for text spoken in lang
func (c *HTTPClient) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := SplitText(text, MaxChunkLength)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := c.fetchChunk(ctx, &audio, chunk, lang, i, len(chunks)); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return audio.Bytes(), nil
}

func (c *HTTPClient) fetchChunk(ctx context.Context, w io.Writer, text, lang string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("q", text)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TTS API returned status %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, io.LimitReader(resp.Body, 4<<20)); err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	return nil
}

// SplitText breaks text into pieces of at most max characters, preferring
// sentence punctuation, then spaces. Words longer than max are hard split.
func SplitText(text string, max int) []string {
	text = strings.Join(strings.Fields(text), " ")
	var chunks []string
	for text != "" {
		runes := []rune(text)
		if len(runes) <= max {
			chunks = append(chunks, text)
			break
		}

		cut := lastBreak(runes[:max+1])
		if cut <= 0 {
			cut = max
		}
		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		text = strings.TrimSpace(string(runes[cut:]))
	}
	return chunks
}

// lastBreak picks a cut index inside window: just past a sentence mark in
// its second half, else at the last space, else -1.
func lastBreak(window []rune) int {
	space, punct := -1, -1
	for i := len(window) - 1; i > 0; i-- {
		r := window[i]
		if punct < 0 && i < len(window)-1 && strings.ContainsRune(sentenceMarks, r) {
			punct = i + 1
		}
		if space < 0 && unicode.IsSpace(r) {
			space = i
		}
	}
	if punct >= len(window)/2 || space < 0 {
		return punct
	}
	return space
}
