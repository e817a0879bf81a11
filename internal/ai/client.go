package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BackendConfig holds the settings for one OpenAI-compatible endpoint.
type BackendConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
}

// Backend is one chat+embedding endpoint. The gateway calls either configured
// backend interchangeably.
type Backend interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAICompatibleBackend speaks the /chat/completions and /embeddings wire
// format and maps failures onto the ProviderError taxonomy.
type OpenAICompatibleBackend struct {
	cfg        BackendConfig
	httpClient *http.Client
}

func NewOpenAICompatibleBackend(cfg BackendConfig) *OpenAICompatibleBackend {
	return &OpenAICompatibleBackend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (b *OpenAICompatibleBackend) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    b.cfg.Model,
		"messages": messages,
		"stream":   false,
	}
	raw, err := b.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse chat json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Kind: KindServerError, Message: "empty choices in chat response"}
	}
	choice := parsed.Choices[0]
	if kind := classifyFinishReason(choice.FinishReason); kind != KindOther {
		return "", &ProviderError{Kind: kind, Message: "finish_reason " + choice.FinishReason}
	}
	return choice.Message.Content, nil
}

func (b *OpenAICompatibleBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	reqBody := map[string]interface{}{
		"model": b.cfg.EmbeddingModel,
		"input": []string{text},
	}
	raw, err := b.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, &ProviderError{Kind: KindServerError, Message: "empty embedding in response"}
	}
	return parsed.Data[0].Embedding, nil
}

func (b *OpenAICompatibleBackend) post(ctx context.Context, path string, reqBody map[string]interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Kind: classifyTransportErr(err), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Kind:    classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: string(raw),
		}
	}
	return raw, nil
}
