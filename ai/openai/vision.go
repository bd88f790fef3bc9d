package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/flowmate/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const visionPrompt = `이 이미지를 한국어로 분석해주세요.
- 이미지에 포함된 텍스트가 있다면 그대로 옮겨 적으세요
- 표나 차트라면 핵심 수치와 추세를 정리하세요
- 그 외에는 장면과 주요 요소를 간결하게 설명하세요`

// Vision implements ai.VisionAnalyzer with a multimodal chat model.
type Vision struct {
	client *openai.LLM
	logger *slog.Logger
}

func newVision(config *ai.Config) (*Vision, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}
	return &Vision{
		client: client,
		logger: slog.Default().With("component", "openai-vision", "model", config.VisionModel),
	}, nil
}

// AnalyzeImage sends the image as a binary part with a fixed analysis prompt.
func (v *Vision) AnalyzeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	v.logger.Debug("analyzing image", "mime", mimeType, "bytes", len(data))

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, data),
				llms.TextPart(visionPrompt),
			},
		},
	}

	response, err := v.client.GenerateContent(ctx, messages, llms.WithTemperature(0.0))
	if err != nil {
		v.logger.Error("image analysis failed", "err", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}
	return cleanResponse(response.Choices[0].Content), nil
}
