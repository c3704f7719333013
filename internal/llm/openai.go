package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dirigia/internal/apperr"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
	chatCompletionsPath  = "/chat/completions"
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type openAIClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewOpenAIClient creates a Client backed by the OpenAI chat completions API.
func NewOpenAIClient(cfg OpenAIConfig) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &openAIClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

func (c *openAIClient) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	File     *filePart `json:"file,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (c *openAIClient) Extract(ctx context.Context, doc Document) ([]byte, error) {
	var attachment contentPart
	if doc.MIME == "application/pdf" {
		attachment = contentPart{Type: "file", File: &filePart{Filename: doc.Name, FileData: dataURL(doc.MIME, doc.Data)}}
	} else {
		attachment = contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL(doc.MIME, doc.Data)}}
	}

	answer, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: ocrSystemPrompt},
			{Role: "user", Content: []contentPart{{Type: "text", Text: ocrUserPrompt}, attachment}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.1,
	})
	if err != nil {
		return nil, err
	}
	return []byte(answer), nil
}

func (c *openAIClient) Generate(ctx context.Context, req AppealRequest) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: appealSystemPrompt},
			{Role: "user", Content: AppealUserPrompt(req)},
		},
		Temperature: 0.7,
		MaxTokens:   4096,
	})
}

func (c *openAIClient) complete(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, UpstreamMessage, fmt.Errorf("calling openai: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, UpstreamMessage, fmt.Errorf("reading openai response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError("openai", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, UpstreamMessage, fmt.Errorf("decoding openai response: %w", err))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperr.New(apperr.KindUpstream, EmptyAnswerMessage)
	}
	return out.Choices[0].Message.Content, nil
}
