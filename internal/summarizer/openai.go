package summarizer

import (
	"context"
	"errors"
	"fmt"
	"linkbrief/internal/domain"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const finishReasonLength = "length"

var ErrEmptyInput = errors.New("input is empty")

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// ChatSummarizer makes one chat-completion call per summary against an
// OpenAI-compatible endpoint (Groq by default).
type ChatSummarizer struct {
	client    openai.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

func NewChatSummarizer(opts Options, log *slog.Logger) (*ChatSummarizer, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("model is empty")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &ChatSummarizer{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		maxTokens: opts.MaxTokens,
		log:       log,
	}, nil
}

// Summarize stuffs all documents into one prompt. Errors wrap domain.ErrLLM;
// empty input fails with ErrEmptyInput before any request is made.
func (s *ChatSummarizer) Summarize(ctx context.Context, docs []domain.Document) (string, error) {
	text := stuff(docs)
	if text == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrLLM, ErrEmptyInput)
	}

	prompt, err := buildPrompt(text)
	if err != nil {
		return "", fmt.Errorf("%w: build prompt: %w", domain.ErrLLM, err)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if s.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(s.maxTokens)
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			s.log.DebugContext(ctx, "LLM request is rejected",
				"statusCode", apiErr.StatusCode,
				"model", s.model)
		}

		return "", fmt.Errorf("%w: do request: %w", domain.ErrLLM, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices (model = %s)", domain.ErrLLM, s.model)
	}

	choice := resp.Choices[0]
	summary := strings.TrimSpace(choice.Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: output text is missing (finishReason = %s)", domain.ErrLLM, choice.FinishReason)
	}

	if choice.FinishReason == finishReasonLength {
		s.log.WarnContext(ctx, "Summary is truncated by max tokens",
			"model", s.model,
			"maxTokens", s.maxTokens,
			"summaryLen", len(summary))
	}

	s.log.DebugContext(ctx, "Summary is generated",
		"model", s.model,
		"promptLen", len(prompt),
		"documentCount", len(docs),
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens)

	return summary, nil
}
