package pipeline

import (
	"google.golang.org/genai"

	"vlogger/pkg/config"
	"vlogger/pkg/images"
	"vlogger/pkg/inference"
	"vlogger/pkg/retry"
	"vlogger/pkg/script"
	"vlogger/pkg/video"
)

// NewGenAI wires every stage to the given genai client. The script stage
// uses inf, which may be backed by a different provider.
func NewGenAI(client *genai.Client, inf inference.Inferencer, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Script: &script.Writer{Inferencer: inf, Model: cfg.ScriptModel},
		Images: images.NewGenAI(client),
		Videos: &video.Synthesizer{
			Gen:      video.NewGenAI(client),
			Interval: cfg.PollInterval,
			MaxPolls: cfg.MaxPolls,
			Retry:    retry.DefaultPolicy,
		},
		Assembler: video.NewFFmpeg(),
		OutputDir: cfg.OutputDir,
		Retry:     retry.DefaultPolicy,
	}
}

// NewInferencer selects the script inferencer configured in cfg.
func NewInferencer(client *genai.Client, cfg *config.Config) inference.Inferencer {
	switch cfg.ScriptProvider {
	case "openai":
		return inference.NewOpenAIInferencer(cfg.OpenAIAPIKey, cfg.ScriptModel)
	case "grok":
		return inference.NewGrokInferencer(cfg.XAIAPIKey, cfg.ScriptModel)
	default:
		return inference.NewGeminiInferencer(client, cfg.ScriptModel)
	}
}
