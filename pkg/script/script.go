// Package script turns a vlog idea into a validated scene script.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"vlogger/pkg/inference"
	"vlogger/pkg/schema"
	"vlogger/pkg/utils"
)

const (
	ScriptFile     = "script.json"
	MarkdownFile   = "scenes.md"
	StoryboardFile = "scenes.html"
)

// Writer generates scene scripts with a single structured-output call.
type Writer struct {
	Inferencer inference.Inferencer
	Model      string

	// CountTokens is used for prompt size logging. Defaults to utils.NumTokens.
	CountTokens func(string) (int, error)

	// DriftThreshold is the word drift above which a clip is reported as
	// inconsistent with the first clip. Zero uses DefaultDriftThreshold.
	DriftThreshold float64
}

// Write generates the script for b and persists it under dir.
// The returned clip count is whatever the model produced; it is not forced
// to match b.Scenes.
func (w *Writer) Write(ctx context.Context, b Brief, dir string) (*schema.VideoScript, error) {
	if w.Inferencer == nil {
		return nil, errors.New("script writer has no inferencer")
	}
	b = b.WithDefaults()
	if b.Idea == "" {
		return nil, &schema.ValidationError{Field: "idea", Reason: "required"}
	}

	user := b.Prompt()
	count := w.CountTokens
	if count == nil {
		count = utils.NumTokens
	}
	if tokens, err := count(scriptPrompt + user); err == nil {
		log.Debug("script prompt", "tokens", tokens, "scenes", b.Scenes)
	}

	params := &openai.ChatCompletionNewParams{
		Model:          w.Model,
		ResponseFormat: schema.ScriptResponseFormat(),
	}

	log.Info("generating scenes", "idea", utils.LimitStr(b.Idea, 60), "scenes", b.Scenes)
	out, err := w.Inferencer.Infer(ctx, params, scriptPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	if _, err := utils.WriteFile(dir, ScriptFile, []byte(out)); err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}

	s, err := schema.ParseScript([]byte(utils.CleanJSON(out)))
	if err != nil {
		return nil, err
	}
	if len(s.Clips) != b.Scenes {
		log.Warn("model returned a different number of scenes", "requested", b.Scenes, "returned", len(s.Clips))
	}

	if err := WriteStoryboard(s, dir); err != nil {
		return nil, err
	}

	threshold := w.DriftThreshold
	if threshold == 0 {
		threshold = DefaultDriftThreshold
	}
	CheckConsistency(s, threshold)
	return s, nil
}
