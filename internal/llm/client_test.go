package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

const chatCompletionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1760700000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "  summary text \n"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
}`

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func openAIServer(t *testing.T, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
		ok   bool
	}{
		{"gemini", ProviderGemini, true},
		{"", ProviderGemini, true},
		{" OpenAI ", ProviderOpenAI, true},
		{"none", ProviderNone, true},
		{"off", ProviderNone, true},
		{"Disabled", ProviderNone, true},
		{"claude", ProviderGemini, false},
	}
	for _, tt := range tests {
		got, ok := ParseProvider(tt.in)
		assert.Equal(t, tt.want, got, "provider %q", tt.in)
		assert.Equal(t, tt.ok, ok, "provider %q", tt.in)
	}

	assert.Equal(t, "gpt-4o-mini", DefaultModel(ProviderOpenAI))
	assert.Equal(t, "gemini-1.5-flash", DefaultModel(ProviderGemini))
	assert.Empty(t, DefaultModel(ProviderNone))
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := openAIServer(t, &got)

	client, err := NewOpenAIClient("sk-test", "", srv.URL+"/v1", quietLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "be brief", "report body")
	require.NoError(t, err)
	assert.Equal(t, "summary text", text)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "report body", got.Messages[1].Content)
}

func TestOpenAIClient_UserOnlyAndErrors(t *testing.T) {
	var got chatRequest
	srv := openAIServer(t, &got)

	client, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL+"/v1", quietLogger())
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), "", "only user")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)

	_, err = NewOpenAIClient("", "", "", nil)
	assert.Error(t, err)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer failing.Close()
	client, err = NewOpenAIClient("sk-test", "", failing.URL+"/v1", quietLogger())
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestOpenAISDKClient_Complete(t *testing.T) {
	var got chatRequest
	srv := openAIServer(t, &got)

	client, err := NewOpenAISDKClient("sk-test", "gpt-4o", srv.URL+"/v1/", quietLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system words", "report body")
	require.NoError(t, err)
	assert.Equal(t, "summary text", text)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)

	_, err = NewOpenAISDKClient("", "", "", nil)
	assert.Error(t, err)
}

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"sdk summary"}]}}]}`)
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), "g-key", "", srv.URL+"/", quietLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "", "report body")
	require.NoError(t, err)
	assert.Equal(t, "sdk summary", text)

	_, err = NewGeminiClient(context.Background(), "", "", "", nil)
	assert.Error(t, err)
}

func TestGeminiREST_DirectV1(t *testing.T) {
	var body gmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"part one, "},{"text":"part two\n"}]}}]}`)
	}))
	defer srv.Close()

	client, err := NewGeminiRESTClient("g-key", "", srv.URL, time.Second, quietLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "preface", "report")
	require.NoError(t, err)
	assert.Equal(t, "part one, part two", text)
	require.Len(t, body.Contents, 1)
	assert.Equal(t, "preface\n\nreport", body.Contents[0].Parts[0].Text)
}

func TestGeminiREST_FallsBackToDiscoveredModel(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/v1/models/retired-model:generateContent":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":404,"message":"model not found"}}`)
		case "/v1beta/models":
			fmt.Fprint(w, `{"models":[
				{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
				{"name":"models/gemini-1.5-flash-latest","supportedGenerationMethods":["generateContent","countTokens"]},
				{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent"]}
			]}`)
		case "/v1beta/models/gemini-1.5-flash-latest:generateContent":
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"fallback summary"}]}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewGeminiRESTClient("g-key", "retired-model", srv.URL, time.Second, quietLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "", "report")
	require.NoError(t, err)
	assert.Equal(t, "fallback summary", text)
	assert.Equal(t, []string{
		"POST /v1/models/retired-model:generateContent",
		"GET /v1beta/models",
		"POST /v1beta/models/gemini-1.5-flash-latest:generateContent",
	}, paths)
}

func TestGeminiREST_NoSuitableModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models" {
			fmt.Fprint(w, `{"models":[{"name":"models/text-bison","supportedGenerationMethods":["generateText"]}]}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewGeminiRESTClient("g-key", "", srv.URL, time.Second, quietLogger())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "", "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable model")
	assert.Contains(t, err.Error(), "gemini upstream 400")
}

func TestGeminiREST_EmptyCandidatesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/"):
			fmt.Fprint(w, `{"candidates":[]}`)
		default:
			fmt.Fprint(w, `{"models":[]}`)
		}
	}))
	defer srv.Close()

	client, err := NewGeminiRESTClient("g-key", "", srv.URL, time.Second, quietLogger())
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), "", "report")
	assert.Error(t, err)
}
