package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Client implements Service against the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	stats      *Stats
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: NewStats(time.Hour),
	}
}

// Stats returns the client's latency tracker.
func (c *Client) Stats() *Stats {
	return c.stats
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize produces a summary of chunkText, carrying prev as rolling context.
func (c *Client) Summarize(ctx context.Context, prev *Summary, chunkText string) (*Summary, error) {
	text, err := c.complete(ctx, BuildSummarizePrompt(prev, chunkText))
	if err != nil {
		return nil, err
	}
	return decodeSummary(text)
}

// Merge consolidates a batch of summaries into one.
func (c *Client) Merge(ctx context.Context, batch []*Summary) (*Summary, error) {
	prompt, err := BuildMergePrompt(batch)
	if err != nil {
		return nil, err
	}
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return decodeSummary(text)
}

// Analyze produces the final report from the consolidated summary.
func (c *Client) Analyze(ctx context.Context, final *Summary, meta Metadata) (*AnalysisReport, error) {
	prompt, err := BuildAnalyzePrompt(final, meta)
	if err != nil {
		return nil, err
	}
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var report AnalysisReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("parse report json: %s (raw: %s)", err, truncate(text, 200))}
	}
	if err := ValidateReport(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

// complete runs one Messages API call and returns the text content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and connection resets are worth retrying.
		return "", &TransientError{Message: err.Error()}
	}
	defer resp.Body.Close()
	c.stats.Record(time.Since(start).Milliseconds())

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &TransientError{StatusCode: resp.StatusCode, Message: string(respBody)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &FatalError{StatusCode: resp.StatusCode, Message: string(respBody)}
	case resp.StatusCode != http.StatusOK:
		return "", &FatalError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("decode response envelope: %s", err)}
	}
	if apiResp.Error != nil {
		return "", &FatalError{Message: fmt.Sprintf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)}
	}
	if len(apiResp.Content) == 0 {
		return "", &ValidationError{Reason: "empty response content"}
	}

	return stripCodeBlock(apiResp.Content[0].Text), nil
}

func decodeSummary(text string) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("parse summary json: %s (raw: %s)", err, truncate(text, 200))}
	}
	if err := ValidateSummary(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
