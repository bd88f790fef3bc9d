package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/flowmate/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices is returned when the model response carries no choices.
var ErrNoChoices = errors.New("model returned no choices")

// Generator implements ai.Generator over an OpenAI-compatible chat API.
type Generator struct {
	client      *openai.LLM
	model       string
	temperature float64
	logger      *slog.Logger
}

func newGenerator(host, token, model string, temperature float64, component string) (*Generator, error) {
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      slog.Default().With("component", component, "model", model),
	}, nil
}

// NewGenerator creates the main generation model client.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newGenerator(config.GenerationHost, config.APIToken, config.GenerationModel, config.Temperature, "openai-generator")
}

// Generate sends the prompt, preceded by the optional system prompt, and returns
// the first choice's content.
func (g *Generator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if opts.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	temperature := g.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	g.logger.Debug("generating", "prompt_length", len(prompt), "max_tokens", opts.MaxTokens)
	response, err := g.client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		g.logger.Error("generation failed", "err", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}

	return cleanResponse(response.Choices[0].Content), nil
}
