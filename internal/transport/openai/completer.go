package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/metrics"
)

// rewriteInstruction biases the completion model toward product-catalog
// vocabulary so the expanded passage embeds close to catalog descriptions.
const rewriteInstruction = "You are a product search assistant. Expand the " +
	"user's short query into a detailed passage describing the product " +
	"attributes, materials, styles and use cases the shopper most likely " +
	"means. Reply with the passage only, no preamble."

// captionInstruction asks for a caption dense enough to embed and match
// against product descriptions.
const captionInstruction = "Describe this product image in detail: what the " +
	"item is, its colors, materials, style and likely use. Reply with the " +
	"description only."

// Completer wraps chat completions for query rewriting and image captioning.
type Completer struct {
	client           *openai.Client
	model            string
	rewriteMaxTokens int
	captionMaxTokens int
	logger           *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	RewriteMaxTokens int
	CaptionMaxTokens int
	Logger           *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:           openai.NewClientWithConfig(clientCfg),
		model:            cfg.Model,
		rewriteMaxTokens: cfg.RewriteMaxTokens,
		captionMaxTokens: cfg.CaptionMaxTokens,
		logger:           cfg.Logger,
	}
}

// RewriteQuery expands a short query into a longer descriptive passage.
// On any failure it returns the original query unchanged: a degraded vector
// search beats a failed request here.
func (c *Completer) RewriteQuery(ctx context.Context, query string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.rewriteMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rewriteInstruction},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	}

	text, err := c.complete(ctx, "rewrite", req)
	if err != nil {
		c.logger.Warn("query rewrite failed, using original query", zap.Error(err))
		return query, nil
	}
	return text, nil
}

// CaptionImage describes an uploaded image via a multimodal completion.
// Unlike RewriteQuery there is no fallback: without a caption the image
// pipeline has nothing to embed, so the error propagates.
func (c *Completer) CaptionImage(ctx context.Context, image []byte) (string, error) {
	mime := http.DetectContentType(image)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.captionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: captionInstruction},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	return c.complete(ctx, "caption", req)
}

func (c *Completer) complete(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", parseAPIError(op, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.ModelRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", fmt.Errorf("empty %s response: %w", op, domain.ErrModelProviderError)
	}

	metrics.ModelRequestsTotal.WithLabelValues(op, c.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(op, c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues(op, c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.ModelTokensTotal.WithLabelValues(op, c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}
