package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ipv4Server struct {
	URL string
	srv *http.Server
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	t.Cleanup(s.Close)
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/gemini-2.0-flash:generateContent" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": 401, "message": "bad key", "status": "UNAUTHENTICATED"}})
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Request-Id", "req-1")
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": "Hello "}, map[string]any{"text": "world"}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 3, "candidatesTokenCount": 2, "totalTokenCount": 5},
		})
	}))

	c := NewGeminiClient("k", time.Second, srv.URL)
	res, err := c.Generate(context.Background(), userPrompt(DefaultGeminiModel, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 5, res.Usage.TotalTokens)
	assert.Equal(t, "req-1", res.RequestID)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "hi", got.Contents[0].Parts[0].Text)

	_, err = NewGeminiClient("wrong", time.Second, srv.URL).Generate(context.Background(), userPrompt(DefaultGeminiModel, "hi"))
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "UNAUTHENTICATED", ae.Code)
}

func TestGeminiBlockedPrompt(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}})
	}))
	_, err := NewGeminiClient("k", time.Second, srv.URL).Generate(context.Background(), userPrompt("m", "hi"))
	var ee *EmptyResponseError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestOpenRouterGenerate(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "x",
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "answer to " + req.Messages[0].Content}}},
			"usage":   map[string]any{"total_tokens": 7},
		})
	}))
	res, err := NewOpenRouterClient("k", time.Second, srv.URL).Generate(context.Background(), userPrompt("openai/gpt-4o-mini", "q"))
	require.NoError(t, err)
	assert.Equal(t, "answer to q", res.Text)
	assert.Equal(t, 7, res.Usage.TotalTokens)
}

func TestClassifyAPIError(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	cases := []struct {
		status int
		body   string
		check  func(error) bool
	}{
		{401, `{"error":{"message":"no"}}`, func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{400, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{429, `{"error":{"message":"slow down"}}`, func(e error) bool {
			var x *RateLimitError
			return errors.As(e, &x) && x.RetryAfter == 3*time.Second
		}},
		{429, `{"error":{"message":"You exceeded your current quota","status":"RESOURCE_EXHAUSTED"}}`, func(e error) bool { var x *QuotaExceededError; return errors.As(e, &x) }},
		{404, `{"error":{"message":"models/foo is not found for API version v1beta"}}`, func(e error) bool { var x *ModelNotFoundError; return errors.As(e, &x) }},
		{400, `{"error":{"message":"bad field"}}`, func(e error) bool { var x *BadRequestError; return errors.As(e, &x) }},
		{503, `upstream down`, func(e error) bool {
			var x *ServerError
			return errors.As(e, &x) && x.Message == "upstream down"
		}},
	}
	for _, tc := range cases {
		err := classifyAPIError(newAPIError(tc.status, h, []byte(tc.body)), h)
		assert.Truef(t, tc.check(err), "status %d body %s -> %T %v", tc.status, tc.body, err, err)
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	s, err := parseRetryAfterSeconds("12")
	require.NoError(t, err)
	assert.Equal(t, 12, s)
	_, err = parseRetryAfterSeconds("soon")
	assert.Error(t, err)
}
