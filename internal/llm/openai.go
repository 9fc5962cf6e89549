package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// defaultHistory bounds how many past exchanges are resent with each prompt.
const defaultHistory = 12

// ChatConfig configures an OpenAI-compatible chat agent.
type ChatConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// System is sent ahead of every conversation.
	System string
	// History is the number of past prompt/reply pairs kept.
	History int
}

// ChatAgent drives a character through the chat completions API. It keeps
// a short conversation history so the model remembers earlier turns.
type ChatAgent struct {
	client  openai.Client
	model   string
	system  string
	history int

	mu    sync.Mutex
	turns []openai.ChatCompletionMessageParamUnion
}

// NewChatAgent builds an agent. Retries are left to the Invoker, so the
// client's own retry loop is disabled.
func NewChatAgent(cfg ChatConfig) *ChatAgent {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	history := cfg.History
	if history <= 0 {
		history = defaultHistory
	}
	return &ChatAgent{
		client:  openai.NewClient(opts...),
		model:   model,
		system:  cfg.System,
		history: history,
	}
}

// Prompt sends the prompt with the recent conversation and returns the
// model's reply.
func (a *ChatAgent) Prompt(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(a.turns)+2)
	if a.system != "" {
		messages = append(messages, openai.SystemMessage(a.system))
	}
	messages = append(messages, a.turns...)
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(a.model),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrProviderRateLimited, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	reply := resp.Choices[0].Message.Content

	a.turns = append(a.turns, openai.UserMessage(prompt), openai.AssistantMessage(reply))
	if keep := 2 * a.history; len(a.turns) > keep {
		a.turns = append([]openai.ChatCompletionMessageParamUnion(nil), a.turns[len(a.turns)-keep:]...)
	}
	return reply, nil
}
