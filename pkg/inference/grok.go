package inference

const grokBaseURL = "https://api.x.ai/v1"

// NewGrokInferencer creates an OpenAI-compatible inferencer pointed at xAI.
func NewGrokInferencer(apiKey string, model string) *OpenAIInferencer {
	if model == "" {
		model = "grok-4-fast-reasoning"
	}
	o := NewOpenAIInferencer(apiKey, model)
	o.ChangeBaseURL(grokBaseURL)
	return o
}
