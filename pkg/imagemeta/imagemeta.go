// Package imagemeta expands a short idea into a structured image prompt and
// renders it.
package imagemeta

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"vlogger/pkg/images"
	"vlogger/pkg/inference"
	"vlogger/pkg/schema"
	"vlogger/pkg/utils"
)

const (
	DefaultCount       = 2
	DefaultAspectRatio = "3:4"
)

const systemPrompt = `Convert the user's idea into a detailed JSON object for generating an image.
Fill every field of the schema with concrete, visual detail that fits the idea. Colours carry a name, a hex code and an approximate percentage.
Output only the raw JSON object, without any markdown formatting.`

// ImageGenerator renders n images for a prompt.
type ImageGenerator interface {
	GenerateN(ctx context.Context, prompt string, n int, aspectRatio string) ([]*images.Image, error)
}

type Builder struct {
	Inferencer inference.Inferencer
	Images     ImageGenerator
	Model      string

	Count       int
	AspectRatio string
	OutputDir   string
}

type Result struct {
	Idea       string              `json:"idea"`
	Prompt     *schema.ImagePrompt `json:"prompt"`
	PromptPath string              `json:"prompt_path"`
	Images     []string            `json:"images"`
}

// Prompt asks the text model for a structured prompt and returns it with its JSON encoding.
func (b *Builder) Prompt(ctx context.Context, idea string) (*schema.ImagePrompt, string, error) {
	params := &openai.ChatCompletionNewParams{
		Model:          b.Model,
		ResponseFormat: schema.ImagePromptResponseFormat(),
	}
	out, err := b.Inferencer.Infer(ctx, params, systemPrompt, fmt.Sprintf("Idea: %q", idea))
	if err != nil {
		return nil, "", fmt.Errorf("generate image prompt: %w", err)
	}
	raw := utils.CleanJSON(out)

	var p schema.ImagePrompt
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, "", &schema.ValidationError{Field: "image_prompt", Reason: "malformed JSON", Err: err}
	}
	if strings.TrimSpace(p.Subject.Primary) == "" {
		return nil, "", &schema.ValidationError{Field: "subject.primary", Reason: "required"}
	}
	return &p, raw, nil
}

// Generate builds the prompt for idea, renders the images and saves
// <slug>-<n>.png plus <slug>.json under OutputDir.
func (b *Builder) Generate(ctx context.Context, idea string) (*Result, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, &schema.ValidationError{Field: "idea", Reason: "required"}
	}
	p, raw, err := b.Prompt(ctx, idea)
	if err != nil {
		return nil, err
	}

	count := cmp.Or(b.Count, DefaultCount)
	log.Info("generating images", "idea", utils.LimitStr(idea, 60), "count", count)
	imgs, err := b.Images.GenerateN(ctx, raw, count, cmp.Or(b.AspectRatio, DefaultAspectRatio))
	if err != nil {
		return nil, err
	}

	slug := FileSlug(idea)
	res := &Result{Idea: idea, Prompt: p}
	res.PromptPath, err = utils.WriteFile(b.OutputDir, slug+".json", []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("save prompt: %w", err)
	}
	for i, img := range imgs {
		path, err := images.Save(img, b.OutputDir, fmt.Sprintf("%s-%d.png", slug, i+1))
		if err != nil {
			return res, err
		}
		log.Info("saved image", "path", path)
		res.Images = append(res.Images, path)
	}
	return res, nil
}

// GenerateAll processes every idea in order, continuing past failures.
func (b *Builder) GenerateAll(ctx context.Context, ideas []string) ([]*Result, error) {
	var results []*Result
	var errs []error
	for _, idea := range ideas {
		if ctx.Err() != nil {
			return results, errors.Join(append(errs, ctx.Err())...)
		}
		res, err := b.Generate(ctx, idea)
		if err != nil {
			log.Error("image generation failed", "idea", utils.LimitStr(idea, 60), "error", err)
			errs = append(errs, fmt.Errorf("%q: %w", utils.LimitStr(idea, 30), err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// FileSlug keeps ASCII letters, digits and spaces from the first 30
// characters of idea, lowercased with spaces turned into dashes.
func FileSlug(idea string) string {
	r := []rune(idea)
	if len(r) > 30 {
		r = r[:30]
	}
	var b strings.Builder
	for _, c := range r {
		switch {
		case c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)):
			b.WriteRune(unicode.ToLower(c))
		case c == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
