package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

// ChatConfig points a ChatGenerator at an OpenAI-compatible endpoint
// (OpenAI, Gemini's compatibility layer, Ollama, ...).
type ChatConfig struct {
	BaseURL     string // e.g. http://localhost:11434/v1
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Subject     string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatGenerator calls POST {BaseURL}/chat/completions once per Generate.
// It does not retry.
type ChatGenerator struct {
	cfg    ChatConfig
	client *req.Client
}

func NewChatGenerator(cfg ChatConfig) *ChatGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := req.C().
		SetTimeout(cfg.Timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json")
	return &ChatGenerator{cfg: cfg, client: c}
}

func (g *ChatGenerator) Generate(ctx context.Context, r Request) (string, error) {
	if g.cfg.BaseURL == "" {
		return "", errors.New("chat: base url not configured")
	}
	temp := g.cfg.Temperature
	body := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: Prompt(g.cfg.Subject, r)},
		},
		Temperature: &temp,
	}

	var out chatResponse
	rq := g.client.R().
		SetContext(ctx).
		SetBody(&body).
		SetSuccessResult(&out)
	if g.cfg.APIKey != "" {
		rq.SetBearerAuthToken(g.cfg.APIKey)
	}
	resp, err := rq.Post(strings.TrimSuffix(g.cfg.BaseURL, "/") + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat: request: %w", err)
	}
	if !resp.IsSuccessState() {
		return "", fmt.Errorf("chat: unexpected status %d: %.200s", resp.GetStatusCode(), resp.String())
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("chat: empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
