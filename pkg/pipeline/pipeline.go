// Package pipeline drives a vlog from idea to merged video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"vlogger/pkg/images"
	"vlogger/pkg/retry"
	"vlogger/pkg/schema"
	"vlogger/pkg/script"
	"vlogger/pkg/video"
)

const (
	StartImageFile = "start_image.png"
	OutputFile     = "vlog.mp4"
)

type ScriptWriter interface {
	Write(ctx context.Context, b script.Brief, dir string) (*schema.VideoScript, error)
}

type ClipSynthesizer interface {
	Synthesize(ctx context.Context, req video.Request, path string) (string, error)
}

type Pipeline struct {
	Script    ScriptWriter
	Images    images.Generator
	Videos    ClipSynthesizer
	Assembler video.Assembler

	OutputDir string
	Observer  Observer

	// Retry applies to each remote call made directly by the pipeline.
	Retry retry.Policy
}

type Result struct {
	Idea       string              `json:"idea"`
	Dir        string              `json:"dir"`
	Script     *schema.VideoScript `json:"script,omitempty"`
	StartImage string              `json:"start_image,omitempty"`
	// Clips holds the per-scene videos in playback order.
	Clips  []string `json:"clips"`
	Output string   `json:"output,omitempty"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlug = 35

// Slug derives the output directory name of an idea.
func Slug(idea string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(idea), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlug {
		s = strings.Trim(s[:maxSlug], "-")
	}
	if s == "" {
		return "vlog"
	}
	return s
}

// Run generates one vlog. Scenes are produced strictly in order.
func (p *Pipeline) Run(ctx context.Context, b script.Brief) (*Result, error) {
	b = b.WithDefaults()
	if b.Idea == "" {
		return nil, &schema.ValidationError{Field: "idea", Reason: "required"}
	}

	dir := filepath.Join(p.OutputDir, Slug(b.Idea))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	res := &Result{Idea: b.Idea, Dir: dir}
	log.Info("starting vlog", "idea", b.Idea, "dir", dir)

	p.emit(Event{Stage: StageScript, Message: "generating scenes"})
	s, err := retry.Do(ctx, p.Retry, "script", func(ctx context.Context) (*schema.VideoScript, error) {
		return p.Script.Write(ctx, b, dir)
	})
	if err != nil {
		return res, fmt.Errorf("script: %w", err)
	}
	res.Script = s
	total := len(s.Clips)

	p.emit(Event{Stage: StageImage, Total: total, Message: "generating start image"})
	start, err := retry.Do(ctx, p.Retry, "start image", func(ctx context.Context) (*images.Image, error) {
		return p.Images.Generate(ctx, s.PromptFor(0).JSON())
	})
	if err != nil {
		return res, fmt.Errorf("start image: %w", err)
	}
	res.StartImage, err = images.Save(start, dir, StartImageFile)
	if err != nil {
		return res, err
	}
	if _, err := images.SaveWebP(res.StartImage); err != nil {
		log.Warn("could not write preview", "error", err)
	}
	p.emit(Event{Stage: StageImage, Total: total, Path: res.StartImage, Message: "start image ready"})

	for n, clip := range s.Clips {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Info("processing scene", "scene", n+1, "total", total, "clip", clip.ID)
		prompt := s.PromptFor(n).JSON()

		img := start
		if n > 0 {
			p.emit(Event{Stage: StageEdit, Scene: n, Total: total, Message: "editing image"})
			img, err = retry.Do(ctx, p.Retry, "edit image", func(ctx context.Context) (*images.Image, error) {
				return p.Images.Edit(ctx, start, prompt)
			})
			if err != nil {
				return res, fmt.Errorf("scene %d: edit image: %w", n+1, err)
			}
			path, err := images.Save(img, dir, fmt.Sprintf("scene_%d_image.png", n))
			if err != nil {
				return res, fmt.Errorf("scene %d: %w", n+1, err)
			}
			p.emit(Event{Stage: StageEdit, Scene: n, Total: total, Path: path})
		}

		p.emit(Event{Stage: StageVideo, Scene: n, Total: total, Message: "generating video"})
		clipPath, err := p.Videos.Synthesize(ctx, video.Request{
			Prompt:         video.Prompt(prompt, b.AspectRatio),
			Image:          img,
			AspectRatio:    b.AspectRatio,
			NegativePrompt: clip.NegativePrompt,
		}, filepath.Join(dir, fmt.Sprintf("video_%d.mp4", n)))
		if err != nil {
			return res, fmt.Errorf("scene %d: video: %w", n+1, err)
		}
		res.Clips = append(res.Clips, clipPath)
		p.emit(Event{Stage: StageVideo, Scene: n, Total: total, Path: clipPath})
	}

	p.emit(Event{Stage: StageAssemble, Total: total, Message: "merging videos"})
	res.Output, err = p.Assembler.Concat(ctx, res.Clips, filepath.Join(dir, OutputFile))
	if err != nil {
		return res, fmt.Errorf("assemble: %w", err)
	}
	p.emit(Event{Stage: StageDone, Total: total, Path: res.Output})
	log.Info("vlog ready", "path", res.Output)
	return res, nil
}

// RunWithRetry runs b and, if it fails with a retryable error, runs it
// exactly once more with the same inputs.
func (p *Pipeline) RunWithRetry(ctx context.Context, b script.Brief) (*Result, error) {
	res, err := p.Run(ctx, b)
	if err == nil || retry.IsPermanent(err) || ctx.Err() != nil {
		return res, err
	}
	log.Warn("run failed, retrying", "idea", b.Idea, "error", err)
	p.emit(Event{Stage: StageRetry, Message: err.Error()})
	return p.Run(ctx, b)
}

// RunBatch runs every brief in order. A failed brief does not stop the batch;
// all failures are returned joined.
func (p *Pipeline) RunBatch(ctx context.Context, briefs []script.Brief) ([]*Result, error) {
	var results []*Result
	var errs []error
	for _, b := range briefs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res, err := p.RunWithRetry(ctx, b)
		if err != nil {
			log.Error("vlog failed", "idea", b.Idea, "error", err)
			p.emit(Event{Stage: StageError, Message: err.Error()})
			errs = append(errs, fmt.Errorf("%q: %w", b.Idea, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (p *Pipeline) emit(e Event) {
	if p.Observer != nil {
		p.Observer(e)
	}
}
