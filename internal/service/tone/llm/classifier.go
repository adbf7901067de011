// Package llm provides a tone classifier backed by an OpenAI-compatible chat
// completion endpoint (OpenAI, Ollama, vLLM, ...).
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/service/tone"
)

// Config holds classifier configuration.
type Config struct {
	Backend      string // openai, none
	Enabled      bool
	APIKey       string
	BaseURL      string
	Model        string
	ReadinessTTL time.Duration
	Temperature  float32
	MaxTokens    int
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		Backend:      "openai",
		Enabled:      true,
		Model:        openai.GPT4oMini,
		ReadinessTTL: 5 * time.Minute,
		Temperature:  0,
		MaxTokens:    48,
	}
}

// Classifier implements tone.Classifier with a chat completion model.
type Classifier struct {
	cfg    Config
	client *openai.Client
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	readyAt   time.Time
	readyOnce bool
}

// New creates a classifier. The client is only built when the backend is
// usable; availability is still checked on every call.
func New(cfg Config) *Classifier {
	c := &Classifier{
		cfg:    cfg,
		logger: logging.WithComponent("tone-classifier"),
		now:    time.Now,
	}
	if cfg.Backend == "openai" && (cfg.APIKey != "" || cfg.BaseURL != "") {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		c.client = openai.NewClientWithConfig(clientCfg)
	}
	return c
}

// Availability reports whether the classifier can run right now. A
// successful model check is cached for ReadinessTTL.
func (c *Classifier) Availability(ctx context.Context) tone.Availability {
	if c.cfg.Backend != "openai" {
		return tone.DeviceNotEligible
	}
	if !c.cfg.Enabled || c.client == nil {
		return tone.FeatureDisabled
	}

	c.mu.Lock()
	cached := c.readyOnce && c.now().Sub(c.readyAt) < c.cfg.ReadinessTTL
	c.mu.Unlock()
	if cached {
		return tone.Available
	}

	if _, err := c.client.GetModel(ctx, c.cfg.Model); err != nil {
		c.logger.Warn().Err(err).Str("model", c.cfg.Model).Msg("Classifier model not ready")
		return tone.ModelNotReady
	}

	c.mu.Lock()
	c.readyOnce = true
	c.readyAt = c.now()
	c.mu.Unlock()
	return tone.Available
}

// Classify asks the model whether text satisfies question.
func (c *Classifier) Classify(ctx context.Context, text, question string) (tone.Result, error) {
	if a := c.Availability(ctx); a != tone.Available {
		return tone.Result{}, tone.Unavailable(a, nil)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: tone.BuildPrompt(text, question),
			},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		c.invalidate()
		return tone.Result{}, tone.Unavailable(tone.ModelNotReady, err)
	}
	if len(resp.Choices) == 0 {
		return tone.Result{}, tone.ErrUnparseableResponse
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug().Str("reply", reply).Int("chars", len(text)).Msg("Classifier replied")
	return tone.ParseReply(reply)
}

func (c *Classifier) invalidate() {
	c.mu.Lock()
	c.readyOnce = false
	c.mu.Unlock()
}
