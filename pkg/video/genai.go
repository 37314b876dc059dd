package video

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "veo-3.0-generate-preview"

// Models is the subset of *genai.Models used to start video jobs.
type Models interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

type Operations interface {
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

type Files interface {
	Download(ctx context.Context, uri genai.DownloadURI, config *genai.DownloadFileConfig) ([]byte, error)
}

// GenAI generates clips with Veo through the genai SDK.
type GenAI struct {
	models     Models
	operations Operations
	files      Files

	Model            string
	PersonGeneration string
}

func NewGenAI(client *genai.Client) *GenAI {
	return newGenAI(client.Models, client.Operations, client.Files)
}

func newGenAI(m Models, o Operations, f Files) *GenAI {
	return &GenAI{
		models:           m,
		operations:       o,
		files:            f,
		Model:            DefaultModel,
		PersonGeneration: "allow_all",
	}
}

func (g *GenAI) Submit(ctx context.Context, req Request) (*Job, error) {
	op, err := g.models.GenerateVideos(ctx, g.Model, req.Prompt, req.Image.GenAI(), &genai.GenerateVideosConfig{
		AspectRatio:      SupportedAspectRatio,
		NegativePrompt:   req.NegativePrompt,
		PersonGeneration: g.PersonGeneration,
	})
	if err != nil {
		return nil, fmt.Errorf("submit video: %w", err)
	}
	return jobFrom(op), nil
}

func (g *GenAI) Poll(ctx context.Context, job *Job) (*Job, error) {
	op, ok := job.Handle.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, fmt.Errorf("poll video: job %s has no operation", job.Name)
	}
	op, err := g.operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, fmt.Errorf("poll video: %w", err)
	}
	return jobFrom(op), nil
}

func (g *GenAI) Download(ctx context.Context, job *Job) ([]byte, error) {
	op, ok := job.Handle.(*genai.GenerateVideosOperation)
	if !ok || op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, ErrNoVideo
	}
	v := op.Response.GeneratedVideos[0]
	if v == nil || v.Video == nil {
		return nil, ErrNoVideo
	}
	if len(v.Video.VideoBytes) > 0 {
		return v.Video.VideoBytes, nil
	}
	data, err := g.files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(v), nil)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	return data, nil
}

func jobFrom(op *genai.GenerateVideosOperation) *Job {
	j := &Job{Name: op.Name, Done: op.Done, Handle: op}
	if op.Error != nil {
		je := &JobError{Name: op.Name}
		if code, ok := op.Error["code"].(float64); ok {
			je.Code = int(code)
		}
		if msg, ok := op.Error["message"].(string); ok {
			je.Message = msg
		}
		j.Err = je
	}
	if op.Response != nil {
		j.FilteredReasons = op.Response.RAIMediaFilteredReasons
	}
	return j
}
