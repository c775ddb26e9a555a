package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/infra/ai/prompt"
)

const (
	maxTokens = 1000

	analysisTemperature = 0.3
	answerTemperature   = 0.7

	// DefaultBaseURL is the OpenRouter chat-completion API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// Options configures the remote endpoint. Only APIKey is required.
type Options struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
	Timeout time.Duration
}

// Client issues single chat-completion requests against one OpenAI-compatible endpoint.
// It never retries; model failover is the caller's job.
type Client struct {
	*openai.Client
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: &headerTransport{referer: opts.Referer, title: opts.Title},
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

// AnalyzeImage sends the analysis prompt plus the image as a data URL.
func (c *Client) AnalyzeImage(ctx context.Context, model, image, hint string) (string, error) {
	url := "data:image/jpeg;base64," + domain.StripDataURL(image)
	return c.complete(ctx, model, analysisTemperature, []openai.ChatCompletionMessage{{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt.AnalysisPrompt(hint)},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url}},
		},
	}})
}

func (c *Client) AnalyzeText(ctx context.Context, model, description string) (string, error) {
	return c.complete(ctx, model, analysisTemperature, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt.DescriptionPrompt(description)},
	})
}

func (c *Client) Answer(ctx context.Context, model, question, qctx string) (string, error) {
	return c.complete(ctx, model, answerTemperature, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.QuestionSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.QuestionPrompt(question, qctx)},
	})
}

func (c *Client) complete(ctx context.Context, model string, temperature float32, msgs []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s: no choices: %w", model, domain.ErrEmptyContent)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("model %s: %w", model, domain.ErrEmptyContent)
	}
	return content, nil
}

func isReasoningModel(model string) bool {
	// OpenRouter ids carry a vendor prefix, e.g. openai/o3-mini
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// StatusCode extracts the HTTP status from a go-openai error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classify(model string, err error) error {
	if StatusCode(err) == http.StatusTooManyRequests {
		return fmt.Errorf("model %s: %w: %v", model, domain.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("model %s: failed to create chat completion: %w", model, err)
}
