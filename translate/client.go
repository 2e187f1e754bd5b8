package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-resty/resty/v2"

	"github.com/minios-linux/bitrans/config"
	"github.com/minios-linux/bitrans/langmeta"
)

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// Result is the outcome of one request. Exactly one of Text (on success)
// and Err (on failure) is meaningful.
type Result struct {
	Success bool
	Text    string
	Err     *Error
}

func success(text string) Result {
	return Result{Success: true, Text: text}
}

func failure(err *Error) Result {
	return Result{Err: err}
}

// Error returns the failure as an error value, or nil on success.
func (r Result) Error() error {
	if r.Success || r.Err == nil {
		return nil
	}
	return r.Err
}

// Line is one translatable line of the original document.
type Line struct {
	// Index is the zero-based position in the original document.
	Index int
	// Text is the trimmed line content sent to the model.
	Text string
	// Indent is the leading whitespace of the original line.
	Indent string
}

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

// BatchSystemPrompt is used for numbered-line batch requests.
const BatchSystemPrompt = "You are a translator. Translate the text following the given format exactly."

// TestText is sent by Client.Test.
const TestText = "Hello, world!"

// RenderPrompt substitutes {{toLang}} and {{fromLang}} in the template with
// language names from s.
func RenderPrompt(template string, s config.Settings) string {
	out := strings.ReplaceAll(template, "{{toLang}}", langmeta.Name(s.ToLang))
	return strings.ReplaceAll(out, "{{fromLang}}", langmeta.SourceName(s.FromLang))
}

// BuildBatchPrompt lists lines with their ordinal within the batch as a
// [n] prefix.
func BuildBatchPrompt(lines []Line, s config.Settings) string {
	var body strings.Builder
	for i, l := range lines {
		if i > 0 {
			body.WriteByte('\n')
		}
		fmt.Fprintf(&body, "[%d] %s", i, l.Text)
	}
	return heredoc.Docf(`
		Translate each numbered line below to %s.
		Keep the [number] prefix in your response.
		Preserve any markdown formatting within each line.
		Only output the translated lines with their numbers, nothing else.

		%s`, langmeta.Name(s.ToLang), body.String())
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error json.RawMessage `json:"error,omitempty"`
}

// errorMessage extracts a message from {"error": {"message": ...}} or
// {"error": "..."}.
func (r *chatResponse) errorMessage() string {
	if len(r.Error) == 0 || string(r.Error) == "null" {
		return ""
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil && s != "" {
		return s
	}
	return string(r.Error)
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// ClientOptions configures the HTTP side of a Client.
type ClientOptions struct {
	// Timeout bounds one request including retries' individual attempts.
	Timeout time.Duration
	// MaxRetries is the number of retries on 429 and 5xx responses.
	MaxRetries int
	// RetryWait is the initial backoff between retries.
	RetryWait time.Duration
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Verbose logs every request.
	Verbose bool
}

// ClientOptionsFrom takes the network settings from s.
func ClientOptionsFrom(s config.Settings) ClientOptions {
	return ClientOptions{
		Timeout:    s.Timeout,
		MaxRetries: s.MaxRetries,
		RetryWait:  time.Second,
		Proxy:      s.Proxy,
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint. Request
// parameters come from the Settings passed to each call; the Client itself
// only carries the HTTP transport.
type Client struct {
	http    *resty.Client
	verbose bool
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	h := resty.New()
	if opts.Timeout > 0 {
		h.SetTimeout(opts.Timeout)
	}
	if opts.Proxy != "" {
		h.SetProxy(opts.Proxy)
	}
	if opts.MaxRetries > 0 {
		wait := opts.RetryWait
		if wait <= 0 {
			wait = time.Second
		}
		h.SetRetryCount(opts.MaxRetries).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(30 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil || r == nil {
					return false
				}
				code := r.StatusCode()
				return code == http.StatusTooManyRequests || code >= 500
			})
	}
	return &Client{http: h, verbose: opts.Verbose}
}

// TranslateOne translates a single piece of text. It never returns a Go
// error: every failure is reported through the Result.
func (c *Client) TranslateOne(ctx context.Context, text string, s config.Settings) Result {
	if strings.TrimSpace(text) == "" {
		return failure(newError(KindInput, nil, "Empty text"))
	}
	if s.APIKey == "" {
		return failure(newError(KindConfig, nil, "API key not configured. Set it with 'bitrans auth set' or BITRANS_API_KEY."))
	}
	return c.complete(ctx, s, RenderPrompt(s.SystemPrompt, s), text)
}

// TranslateBatch sends all lines in one request using the [n] prefix
// format. The reply text is returned unparsed; see ParseBatch.
func (c *Client) TranslateBatch(ctx context.Context, lines []Line, s config.Settings) Result {
	if len(lines) == 0 {
		return failure(newError(KindInput, nil, "Empty text"))
	}
	batch := s
	batch.SystemPrompt = BatchSystemPrompt
	return c.TranslateOne(ctx, BuildBatchPrompt(lines, s), batch)
}

// Test checks that the endpoint, key and model work together.
func (c *Client) Test(ctx context.Context, s config.Settings) Result {
	return c.TranslateOne(ctx, TestText, s)
}

func (c *Client) complete(ctx context.Context, s config.Settings, systemPrompt, userPrompt string) Result {
	body := chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}

	if c.verbose {
		log.Printf("[DEBUG] POST %s (model %s, %d chars)", s.APIURL, s.Model, len(userPrompt))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(s.APIKey).
		SetBody(body).
		Post(s.APIURL)
	if err != nil {
		return failure(newError(KindTransport, err, "API request failed: %v", err))
	}

	var data chatResponse
	decodeErr := json.Unmarshal(resp.Body(), &data)

	if resp.IsError() {
		if decodeErr == nil {
			if msg := data.errorMessage(); msg != "" {
				return failure(newError(KindAPI, nil, "API error (%s): %s", resp.Status(), msg))
			}
		}
		return failure(newError(KindTransport, nil, "API returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 300)))
	}

	if decodeErr != nil {
		return failure(newError(KindTransport, decodeErr, "invalid JSON response: %v", decodeErr))
	}
	if msg := data.errorMessage(); msg != "" {
		return failure(newError(KindAPI, nil, "%s", msg))
	}
	if len(data.Choices) == 0 {
		return failure(newError(KindAPI, nil, "No translation received from API"))
	}
	return success(strings.TrimSpace(data.Choices[0].Message.Content))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
