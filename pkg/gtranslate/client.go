// Package gtranslate is a small client for Google's public "gtx" translate
// endpoint, the one browser extensions use. It needs no API key.
package gtranslate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest input, in characters, sent in one request
const MaxTextLength = 5000

var (
	ErrEmptyResponse = errors.New("translate response contained no text")
	ErrTextTooLong   = errors.New("text exceeds maximum translate length")
)

// Translator translates text into a target language
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// HTTPClient implements Translator over HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Ensure HTTPClient implements Translator
var _ Translator = (*HTTPClient)(nil)

// Config holds configuration for the translate client
type Config struct {
	BaseURL string        // Default: https://translate.googleapis.com
	Timeout time.Duration // Default: 5s
}

// NewHTTPClient creates a new translate client
func NewHTTPClient(config Config) *HTTPClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://translate.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		timeout: config.Timeout,
	}
}

// Translate translates text from source ("auto" to detect) into target
func (c *HTTPClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", ErrTextTooLong
	}
	if source == "" {
		source = "auto"
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return parseResponse(body)
}

// parseResponse extracts the translated segments from the nested array reply:
// [[["Hola","Hello",null,null,10], ...], null, "en", ...]
func parseResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(root) == 0 {
		return "", ErrEmptyResponse
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("failed to decode segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue // null or non-string entries carry transliteration data
		}
		sb.WriteString(part)
	}

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
