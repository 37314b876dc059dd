package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"vlogger/pkg/schema"
)

// ContentGenerator is the subset of *genai.Models used for text generation.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiInferencer struct {
	models ContentGenerator
	model  string
}

// NewGeminiInferencer wraps a shared genai client. The client is owned by the caller.
func NewGeminiInferencer(client *genai.Client, model string) *GeminiInferencer {
	return newGeminiInferencer(client.Models, model)
}

func newGeminiInferencer(models ContentGenerator, model string) *GeminiInferencer {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &GeminiInferencer{
		models: models,
		model:  model,
	}
}

// Infer sends text to Gemini. A JSON-schema response format in params is
// forwarded as the response schema so the output is constrained server side.
func (o *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cmp.Or(params.MaxCompletionTokens.Value, 4096*4)),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if params.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}
	if s := schema.SchemaOf(params.ResponseFormat); s != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = s
	} else if params.ResponseFormat.OfJSONObject != nil {
		config.ResponseMIMEType = "application/json"
	}

	result, err := o.models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "", ErrTruncated
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("empty completion content")
	}
	return text, nil
}
