package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dirigia/internal/apperr"
)

// VertexConfig configures the Gemini client.
type VertexConfig struct {
	ProjectID string
	Region    string
	Model     string
	Timeout   time.Duration
}

type vertexClient struct {
	base      *genai.Client
	extractor *genai.GenerativeModel
	writer    *genai.GenerativeModel
	timeout   time.Duration
}

// NewVertexClient creates a Client backed by Gemini on Vertex AI. Close releases the
// underlying connection.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (Client, func() error, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, nil, fmt.Errorf("vertex: project and region cannot be empty")
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	extractor := base.GenerativeModel(cfg.Model)
	extractor.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(ocrSystemPrompt)}}
	extractor.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
	}

	writer := base.GenerativeModel(cfg.Model)
	writer.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(appealSystemPrompt)}}
	writer.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: genai.Ptr[int32](4096),
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &vertexClient{base: base, extractor: extractor, writer: writer, timeout: timeout}
	return c, base.Close, nil
}

func (c *vertexClient) Name() string { return "vertex" }

func (c *vertexClient) Extract(ctx context.Context, doc Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.extractor.GenerateContent(ctx, genai.Blob{MIMEType: doc.MIME, Data: doc.Data}, genai.Text(ocrUserPrompt))
	if err != nil {
		return nil, vertexError(err)
	}
	answer := responseText(resp)
	if answer == "" {
		return nil, apperr.New(apperr.KindUpstream, EmptyAnswerMessage)
	}
	return []byte(answer), nil
}

func (c *vertexClient) Generate(ctx context.Context, req AppealRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.writer.GenerateContent(ctx, genai.Text(AppealUserPrompt(req)))
	if err != nil {
		return "", vertexError(err)
	}
	answer := responseText(resp)
	if answer == "" {
		return "", apperr.New(apperr.KindUpstream, EmptyAnswerMessage)
	}
	return answer, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

func vertexError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUpstream, UpstreamMessage, err)
	}
	if status.Code(err) == codes.ResourceExhausted {
		return apperr.Wrap(apperr.KindUpstreamRateLimited, RateLimitedMessage, err)
	}
	return apperr.Wrap(apperr.KindUpstream, UpstreamMessage, err)
}
