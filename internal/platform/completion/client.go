package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/observability"
	"github.com/macrofit/macrofit-backend/internal/pkg/httpx"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

// Client performs one logical request to the external natural-language
// completion service. Retry, backoff and error classification live here so no
// caller re-implements transient/permanent branching.
type Client interface {
	// GenerateText returns the plain-text completion for a system+user prompt.
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// GenerateJSON asks the service for output conforming to schema and
	// returns the parsed object. Parse failures of a successful completion
	// consume the same retry budget as transport failures.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Model reports the configured model id, for call logging.
	Model() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
	retryBase  time.Duration

	temperature *float64
}

// NewClient builds a client from environment configuration. A missing API key
// is a configuration failure: the process should refuse to start rather than
// fail per request.
func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, apierr.Configuration(apierr.CodeMissingCollaborator, errors.New("logger required"))
	}

	apiKey := strings.TrimSpace(os.Getenv("COMPLETION_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, apierr.Configuration(apierr.CodeMissingCollaborator, errors.New("missing COMPLETION_API_KEY"))
	}

	baseURL := strings.TrimSpace(os.Getenv("COMPLETION_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("COMPLETION_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("COMPLETION_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := strings.TrimSpace(os.Getenv("COMPLETION_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	retryBase := 1 * time.Second
	if v := strings.TrimSpace(os.Getenv("COMPLETION_RETRY_BASE_MS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			retryBase = time.Duration(parsed) * time.Millisecond
		}
	}

	var tempPtr *float64
	if v := strings.TrimSpace(os.Getenv("COMPLETION_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			tempPtr = &f
		}
	}

	return &client{
		log:         log.With("service", "CompletionClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:  maxRetries,
		retryBase:   retryBase,
		temperature: tempPtr,
	}, nil
}

func (c *client) Model() string { return c.model }

type completionHTTPError struct {
	StatusCode int
	Body       string
}

func (e *completionHTTPError) Error() string {
	return fmt.Sprintf("completion http %d: %s", e.StatusCode, e.Body)
}

func (e *completionHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type responsesRequest struct {
	Model string `json:"model"`

	Input []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"input"`

	Text *textOptions `json:"text,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
}

type textOptions struct {
	Format map[string]any `json:"format"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) newRequest(system, user string) responsesRequest {
	req := responsesRequest{Model: c.model}
	req.Input = []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	req.Temperature = c.temperature
	return req
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &completionHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do runs the retry loop: transient failures back off exponentially with
// jitter (honoring Retry-After), permanent failures return immediately, and
// the per-call context bounds the whole exchange.
func (c *client) do(ctx context.Context, path string, body any, out *responsesResponse) error {
	backoff := c.retryBase
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, raw, err := c.doOnce(ctx, http.MethodPost, path, body)
		if err == nil {
			if metrics := observability.Current(); metrics != nil {
				in, outTok := usageFromRaw(raw)
				metrics.ObserveLLMRequest(c.model, path, statusFromResp(resp), time.Since(start), in, outTok)
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return apierr.Processing(apierr.CodeCompletionInvalid, fmt.Errorf("completion decode error: %w", uErr))
			}
			return nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) {
			if metrics := observability.Current(); metrics != nil {
				metrics.ObserveLLMRequest(c.model, path, statusFromRespErr(resp, err), time.Since(start), 0, 0)
			}
			return apierr.External(apierr.CodeCompletionFailed, err)
		}
		if attempt == c.maxRetries {
			break
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("completion request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveLLMRequest(c.model, path, "error", time.Since(start), 0, 0)
	}
	return apierr.External(apierr.CodeCompletionFailed, fmt.Errorf("retries exhausted after %d attempts: %w", c.maxRetries+1, lastErr))
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := c.newRequest(system, user)

	var resp responsesResponse
	if err := c.do(ctx, "/v1/responses", &req, &resp); err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", apierr.Processing(apierr.CodeCompletionInvalid, fmt.Errorf("model refused: %s", resp.Refusal))
	}

	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", apierr.Processing(apierr.CodeCompletionInvalid, errors.New("no output_text found in response"))
	}
	return text, nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, apierr.Validation(apierr.CodeInvalidInput, errors.New("schemaName required"))
	}
	if schema == nil {
		return nil, apierr.Validation(apierr.CodeInvalidInput, errors.New("schema required"))
	}

	req := c.newRequest(system, user)
	req.Text = &textOptions{
		Format: map[string]any{
			"type":   "json_schema",
			"name":   schemaName,
			"schema": schema,
			"strict": true,
		},
	}

	// A completion that arrives but cannot be parsed is retried against the
	// same budget as a transport failure: the model may simply emit valid
	// JSON on the next attempt.
	var lastParseErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var resp responsesResponse
		if err := c.do(ctx, "/v1/responses", &req, &resp); err != nil {
			return nil, err
		}
		if resp.Refusal != "" {
			return nil, apierr.Processing(apierr.CodeCompletionInvalid, fmt.Errorf("model refused: %s", resp.Refusal))
		}

		jsonText := stripCodeFence(extractOutputText(resp))
		var obj map[string]any
		perr := json.Unmarshal([]byte(jsonText), &obj)
		if perr == nil && obj != nil {
			return obj, nil
		}
		if perr != nil {
			lastParseErr = fmt.Errorf("parse model JSON: %w", perr)
		} else {
			lastParseErr = errors.New("completion returned null JSON")
		}

		c.log.Warn("structured completion unparsable, retrying",
			"schema", schemaName,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"error", lastParseErr.Error(),
		)
	}

	return nil, apierr.Processing(apierr.CodeCompletionInvalid, lastParseErr)
}

// stripCodeFence removes markdown fences some models wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func usageFromRaw(raw []byte) (int, int) {
	if len(raw) == 0 {
		return 0, 0
	}
	var payload struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, 0
	}
	return payload.Usage.InputTokens, payload.Usage.OutputTokens
}

func statusFromResp(resp *http.Response) string {
	if resp == nil {
		return "unknown"
	}
	return strconv.Itoa(resp.StatusCode)
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var httpErr *completionHTTPError
	if err != nil && errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
