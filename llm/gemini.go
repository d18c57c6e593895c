package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const geminiEmbeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"

// GeminiClient generates text through the Gemini API and embeds text
// through the gemini-embedding-001 model
type GeminiClient struct {
	client     *genai.Client
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini-backed generation client and embedder
func NewGeminiClient(client *genai.Client, apiKey, model string) *GeminiClient {
	return &GeminiClient{
		client:     client,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate runs a single generation call. System messages become the
// system instruction; the remaining messages are concatenated into the
// user turn.
func (c *GeminiClient) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini client not set")
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.JSONResponse {
		model.ResponseMIMEType = "application/json"
	}

	var systemParts []genai.Part
	var userParts []genai.Part
	for _, m := range messages {
		if m.Role == RoleSystem {
			systemParts = append(systemParts, genai.Text(m.Content))
		} else {
			userParts = append(userParts, genai.Text(m.Content))
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}
	if len(userParts) == 0 {
		return "", fmt.Errorf("generation request has no user message")
	}

	resp, err := model.GenerateContent(ctx, userParts...)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}

	if out.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return out.String(), nil
}

type geminiEmbeddingRequest struct {
	Model                string             `json:"model"`
	Content              geminiContentInput `json:"content"`
	TaskType             string             `json:"task_type,omitempty"`
	OutputDimensionality int                `json:"output_dimensionality,omitempty"`
}

type geminiContentInput struct {
	Parts []geminiPartInput `json:"parts"`
}

type geminiPartInput struct {
	Text string `json:"text"`
}

type geminiEmbeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed computes a normalized embedding for a single text
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	reqBody := geminiEmbeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: geminiContentInput{
			Parts: []geminiPartInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: EmbeddingDimension,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", geminiEmbeddingAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp geminiEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	embedding := apiResp.Embedding.Values
	if len(embedding) != EmbeddingDimension {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimension, len(embedding))
	}

	l2normalize(embedding)
	return embedding, nil
}

// Dimension returns the embedding vector size
func (c *GeminiClient) Dimension() int {
	return EmbeddingDimension
}
