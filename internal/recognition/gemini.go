package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("missing Gemini API key")
	ErrNoCandidate   = errors.New("no candidate in model response")
	ErrEmptyText     = errors.New("empty text in model response")
	ErrFinishReason  = errors.New("model stopped before completing")
)

// ModelCaller sends one prompt plus image to one model and returns the raw text
type ModelCaller interface {
	Generate(ctx context.Context, model, prompt, imageBase64 string) (string, error)
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

var safetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// GeminiClient calls the generateContent endpoint of the Generative Language API
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewGeminiClient creates a client. baseURL is the models collection, e.g.
// https://generativelanguage.googleapis.com/v1beta/models
func NewGeminiClient(apiKey, baseURL string, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		// per-attempt deadlines come from the caller's context
		client: &http.Client{},
		log:    logger,
	}
}

// Generate implements ModelCaller
func (g *GeminiClient) Generate(ctx context.Context, model, prompt, imageBase64 string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	start := time.Now()

	body := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: "image/jpeg", Data: imageBase64}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  4096,
			TopK:             32,
			TopP:             1,
			ResponseMimeType: "application/json",
		},
		SafetySettings: safetySettings,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", g.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini API error: %s - %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", ErrNoCandidate
	}

	candidate := out.Candidates[0]
	if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		return "", fmt.Errorf("%w: %s", ErrFinishReason, candidate.FinishReason)
	}
	if len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].Text == "" {
		return "", ErrEmptyText
	}

	g.log.Debug("model responded", "model", model, "duration", time.Since(start))
	return candidate.Content.Parts[0].Text, nil
}
