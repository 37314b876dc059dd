// Package video turns scene prompts into clips and joins clips into a vlog.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vlogger/pkg/images"
)

// SupportedAspectRatio is the only ratio the video model accepts.
const SupportedAspectRatio = "16:9"

var (
	// ErrNoVideo means the job finished without producing a video.
	ErrNoVideo = errors.New("video job completed without a video")
	// ErrPollLimit means the job did not finish within the allowed number of status checks.
	ErrPollLimit = errors.New("video job did not finish in time")
)

// Request is a single clip generation.
type Request struct {
	Prompt         string
	Image          *images.Image
	AspectRatio    string
	NegativePrompt string
}

// Job is a handle to a long-running generation.
type Job struct {
	Name string
	Done bool
	Err  error

	// FilteredReasons lists safety filter reasons reported for the job.
	FilteredReasons []string

	// Handle is the provider's own operation value.
	Handle any
}

type Generator interface {
	Submit(ctx context.Context, req Request) (*Job, error)
	Poll(ctx context.Context, job *Job) (*Job, error)
	Download(ctx context.Context, job *Job) ([]byte, error)
}

// JobError is a failure reported by the provider for a finished job.
type JobError struct {
	Name    string
	Code    int
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("video job %s failed (code %d): %s", e.Name, e.Code, e.Message)
}

const rules = `Rules:
- No subtitles or camera directions.
- The video should be in %s aspect ratio.
- Keep it short, visual, simple, cinematic.
`

// Prompt appends the clip rules to a scene document.
func Prompt(scene, aspectRatio string) string {
	if aspectRatio == "" {
		aspectRatio = SupportedAspectRatio
	}
	return strings.TrimSpace(scene) + "\n\n" + fmt.Sprintf(rules, aspectRatio)
}
