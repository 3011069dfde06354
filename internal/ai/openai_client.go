package ai

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyReply = errors.New("ai: empty reply")

type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *OpenAIClient) GetReply(
	ctx context.Context,
	systemPrompt string,
	history []Message,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0,
	})
	if err != nil {
		log.Println("[ai] OpenAI error:", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		log.Println("[ai] empty choices")
		return "", ErrEmptyReply
	}

	raw := resp.Choices[0].Message.Content
	log.Printf("[ai] reply model=%s tokens=%d len=%d", c.model, resp.Usage.TotalTokens, len(raw))

	return raw, nil
}
