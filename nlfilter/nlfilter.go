// Package nlfilter translates natural-language queries into filter pill
// strings by calling an OpenAI-compatible chat-completions endpoint
// (typically a locally hosted model). The translator performs no validation
// of the returned pills beyond trimming: an invalid regex pill is harmless
// because the matcher degrades it to a literal substring search.
package nlfilter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Translator converts free-form operator questions ("ubuntu boxes with more
// than 4 cores") into pill strings ("distribution=Ubuntu", "vcpus>4").
type Translator struct {
	url    string // base URL of the chat-completions server
	model  string
	client *http.Client
	logger *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithTimeout sets the HTTP timeout. Local models can be slow; default 60s.
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) { t.client.Timeout = d }
}

// WithLogger sets the translator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) { t.logger = logger }
}

// New creates a Translator against the chat-completions server at url.
func New(url, model string, opts ...Option) *Translator {
	t := &Translator{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

const systemPrompt = `You translate operator questions about server inventory facts into filter terms.
Each term is one of:
  key=value, key!=value, key>n, key<n, key>=n, key<=n   (key is a fact name suffix, e.g. "vcpus" or "distribution")
  host=name or hostname=name                             (target a specific host)
  "exact text"                                           (exact match on host, fact name, or value)
  plain text or a regular expression                     (free-text search)
Multiple alternatives in one term are joined with |, e.g. distribution=Ubuntu|distribution=Debian.
Respond with ONLY a JSON array of term strings, nothing else.`

// chat-completions wire types, OpenAI format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate sends the query plus the snapshot's known fact paths (for
// grounding) and parses the model's reply into pill strings.
func (t *Translator) Translate(ctx context.Context, query string, knownPaths []string) ([]string, error) {
	user := "Question: " + query
	if len(knownPaths) > 0 {
		// A sample of real paths keeps the model from inventing fact names.
		sample := knownPaths
		if len(sample) > 50 {
			sample = sample[:50]
		}
		user += "\nKnown fact names include: " + strings.Join(sample, ", ")
	}

	body, err := json.Marshal(chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("nlfilter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.url+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nlfilter: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nlfilter: call model: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("nlfilter: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nlfilter: model status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("nlfilter: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("nlfilter: empty response")
	}

	pills := parsePills(cr.Choices[0].Message.Content)
	t.logger.Debug("nl query translated", "query", query, "pills", pills)
	return pills, nil
}

// parsePills extracts term strings from the model reply. The happy path is
// a bare JSON array; models that wrap it in prose or code fences get the
// array dug out, and as a last resort each non-empty line becomes a pill.
func parsePills(content string) []string {
	content = strings.TrimSpace(content)

	if arr := tryJSONArray(content); arr != nil {
		return arr
	}
	// Look for an embedded array.
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		if arr := tryJSONArray(content[start : end+1]); arr != nil {
			return arr
		}
	}

	var pills []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		if line == "" {
			continue
		}
		pills = append(pills, line)
	}
	return pills
}

func tryJSONArray(s string) []string {
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil
	}
	out := arr[:0]
	for _, p := range arr {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
