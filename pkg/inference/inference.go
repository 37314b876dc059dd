package inference

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// Inferencer runs a single system+user text generation. Params carry
// provider-neutral knobs (model, token budget, temperature, response format).
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
}
