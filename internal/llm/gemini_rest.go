package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultGeminiBaseURL is the Generative Language API endpoint
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiRESTClient calls generateContent over plain HTTP. When the
// configured model is rejected on v1 it lists v1beta models and retries with
// the first flash or 1.5 model that supports generateContent.
type GeminiRESTClient struct {
	hc      *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *logrus.Entry
}

// NewGeminiRESTClient creates a REST client. baseURL may be empty.
func NewGeminiRESTClient(apiKey, model, baseURL string, timeout time.Duration, logger *logrus.Entry) (*GeminiRESTClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &GeminiRESTClient{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		logger:  logger.WithField("model", model),
	}, nil
}

type gmPart struct {
	Text string `json:"text"`
}

type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}

type gmRequest struct {
	Contents []gmContent `json:"contents"`
}

type gmResponse struct {
	Candidates []struct {
		Content struct {
			Parts []gmPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type gmModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// upstreamError is a non-2xx answer from the API
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string {
	return fmt.Sprintf("gemini upstream %d: %s", e.status, e.msg)
}

// Complete sends the prompt as a single user turn. The system prompt, when
// present, is prepended to it.
func (c *GeminiRESTClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	prompt := userPrompt
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\n" + userPrompt
	}

	text, err := c.generate(ctx, "v1/models/"+url.PathEscape(c.model), prompt)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	c.logger.WithError(err).Debug("v1 generateContent failed, trying model discovery")

	fallback, listErr := c.discoverModel(ctx)
	if listErr != nil {
		return "", fmt.Errorf("gemini rest call failed: %v | %w", err, listErr)
	}

	text, err2 := c.generate(ctx, "v1beta/"+fallback, prompt)
	if err2 != nil {
		return "", fmt.Errorf("gemini rest call failed: %v | %w", err, err2)
	}
	c.logger.WithField("fallback_model", fallback).Debug("gemini completion via discovered model")
	return text, nil
}

// generate posts to <base>/<modelPath>:generateContent
func (c *GeminiRESTClient) generate(ctx context.Context, modelPath, prompt string) (string, error) {
	body, err := json.Marshal(gmRequest{
		Contents: []gmContent{{Role: "user", Parts: []gmPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(modelPath+":generateContent"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var gr gmResponse
	if err := c.do(req, &gr); err != nil {
		return "", err
	}

	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}

	c.logger.WithFields(logrus.Fields{
		"prompt_length":   len(prompt),
		"response_length": len(text),
	}).Debug("gemini rest completion")
	return text, nil
}

// discoverModel returns a full model name such as "models/gemini-1.5-flash"
func (c *GeminiRESTClient) discoverModel(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("v1beta/models"), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var list gmModelList
	if err := c.do(req, &list); err != nil {
		return "", fmt.Errorf("list models: %w", err)
	}

	for _, m := range list.Models {
		if !slices.Contains(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		if strings.Contains(m.Name, "gemini-1.5") || strings.Contains(m.Name, "flash") {
			return m.Name, nil
		}
	}
	return "", fmt.Errorf("no suitable model found")
}

func (c *GeminiRESTClient) endpoint(path string) string {
	return c.baseURL + "/" + path
}

// do authenticates the request and decodes a 2xx JSON body into out
func (c *GeminiRESTClient) do(req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(slurp))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return upstreamError{status: resp.StatusCode, msg: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
