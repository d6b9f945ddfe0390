package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

func newTestClient(t *testing.T, baseURL string, maxRetries int) Client {
	t.Helper()
	t.Setenv("COMPLETION_API_KEY", "test-key")
	t.Setenv("COMPLETION_BASE_URL", baseURL)
	t.Setenv("COMPLETION_MODEL", "test-model")
	t.Setenv("COMPLETION_MAX_RETRIES", strconv.Itoa(maxRetries))
	t.Setenv("COMPLETION_RETRY_BASE_MS", "1")

	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeTextResponse(w http.ResponseWriter, text string) {
	payload := map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
		"usage": map[string]any{"input_tokens": 12, "output_tokens": 34},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func TestRequestBodyOmitsTextOptionsForPlainText(t *testing.T) {
	var plainBody, jsonBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := body["text"]; ok {
			jsonBody = body
			writeTextResponse(w, `{"ok": true}`)
			return
		}
		plainBody = body
		writeTextResponse(w, "plain")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	if _, err := c.GenerateText(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if plainBody == nil {
		t.Fatal("plain-text request carried a text field")
	}

	schema := map[string]any{"type": "object"}
	if _, err := c.GenerateJSON(context.Background(), "sys", "user", "meal_targets", schema); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if jsonBody == nil {
		t.Fatal("structured request missing text field")
	}
	textField, _ := jsonBody["text"].(map[string]any)
	format, _ := textField["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "meal_targets" {
		t.Fatalf("text.format = %v", format)
	}
}

func TestGenerateTextRetriesTransientThenSucceeds(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&attempts, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeTextResponse(w, "hello there")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	got, err := c.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("text = %q, want %q", got, "hello there")
	}
	if n := atomic.LoadInt64(&attempts); n != 3 {
		t.Fatalf("attempts = %d, want 3", n)
	}
}

func TestGenerateTextPermanentFailureDoesNotRetry(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.GenerateText(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !apierr.Is(err, apierr.KindExternalService) {
		t.Fatalf("error kind = %v, want external_service", err)
	}
	if n := atomic.LoadInt64(&attempts); n != 1 {
		t.Fatalf("attempts = %d, want 1 (no retries on permanent failure)", n)
	}
}

func TestGenerateTextExhaustsRetryBudget(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.GenerateText(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected error after retry budget exhausted")
	}
	if !apierr.Is(err, apierr.KindExternalService) {
		t.Fatalf("error kind = %v, want external_service", err)
	}
	if n := atomic.LoadInt64(&attempts); n != 3 {
		t.Fatalf("attempts = %d, want maxRetries+1 = 3", n)
	}
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTextResponse(w, `{"calories": 2560, "protein_g": 192}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "macro_plan", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["calories"] != float64(2560) {
		t.Fatalf("calories = %v, want 2560", obj["calories"])
	}
}

func TestGenerateJSONStripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTextResponse(w, "```json\n{\"ok\": true}\n```")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "result", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["ok"] != true {
		t.Fatalf("ok = %v, want true", obj["ok"])
	}
}

func TestGenerateJSONUnparsableConsumesBudget(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		writeTextResponse(w, "this is not json at all")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.GenerateJSON(context.Background(), "sys", "user", "macro_plan", map[string]any{"type": "object"})
	if err == nil {
		t.Fatal("expected error for unparsable completion")
	}
	if !apierr.Is(err, apierr.KindProcessing) {
		t.Fatalf("error kind = %v, want processing", err)
	}
	if apierr.CodeOf(err) != apierr.CodeCompletionInvalid {
		t.Fatalf("error code = %q, want %q", apierr.CodeOf(err), apierr.CodeCompletionInvalid)
	}
	if n := atomic.LoadInt64(&attempts); n != 3 {
		t.Fatalf("attempts = %d, want maxRetries+1 = 3", n)
	}
}

func TestGenerateJSONRequiresSchema(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", 0)

	if _, err := c.GenerateJSON(context.Background(), "sys", "user", "", map[string]any{"type": "object"}); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("missing schemaName: kind = %v, want validation", err)
	}
	if _, err := c.GenerateJSON(context.Background(), "sys", "user", "result", nil); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("missing schema: kind = %v, want validation", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("COMPLETION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := NewClient(log); !apierr.Is(err, apierr.KindConfiguration) {
		t.Fatalf("missing api key: kind = %v, want configuration", err)
	}
}
