package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/j0lvera/sanga/internal/conversation"
)

// ErrCompletionFailed wraps every transport, API or decoding failure.
var ErrCompletionFailed = errors.New("completion request failed")

// Options configures the completion client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int           // 0 leaves the output length uncapped
	Timeout     time.Duration // 0 keeps the HTTP client default
	Temperature float64
}

// Service implements the bot.Completer interface using langchain-go
type Service struct {
	client      llms.Model
	maxTokens   int
	temperature float64
}

func NewService(opts Options) (*Service, error) {
	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.Model),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, openai.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Service{
		client:      client,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}, nil
}

// Complete sends the persona followed by the history and returns the first choice.
// The newest user message is expected to be the last history entry.
func (s *Service) Complete(
	ctx context.Context, system string, history []conversation.Record,
) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
	}

	for _, rec := range history {
		var msgType llms.ChatMessageType
		switch rec.Role {
		case conversation.RoleUser:
			msgType = llms.ChatMessageTypeHuman
		case conversation.RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			continue
		}
		msgs = append(msgs, llms.TextParts(msgType, rec.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(s.temperature),
	}
	if s.maxTokens > 0 {
		// OpenRouter documents max_tokens; langchaingo defaults to max_completion_tokens.
		callOpts = append(callOpts,
			llms.WithMaxTokens(s.maxTokens),
			openai.WithLegacyMaxTokensField(),
		)
	}

	resp, err := s.client.GenerateContent(ctx, msgs, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned from model", ErrCompletionFailed)
	}

	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrCompletionFailed)
	}

	return content, nil
}
