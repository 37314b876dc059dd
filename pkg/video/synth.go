package video

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"vlogger/pkg/retry"
	"vlogger/pkg/utils"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultMaxPolls = 90
)

// Synthesizer submits a clip, waits for it and saves the result.
type Synthesizer struct {
	Gen Generator

	// Interval is the fixed wait between status checks.
	Interval time.Duration
	// MaxPolls bounds the number of status checks per clip.
	MaxPolls int

	Wait  func(ctx context.Context, d time.Duration) error
	Retry retry.Policy
}

// Synthesize generates the clip for req and writes it to path.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request, path string) (string, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxPolls := s.MaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	wait := s.Wait
	if wait == nil {
		wait = retry.Sleep
	}

	if req.AspectRatio != "" && req.AspectRatio != SupportedAspectRatio {
		log.Warn("unsupported aspect ratio, using "+SupportedAspectRatio, "requested", req.AspectRatio)
	}
	req.AspectRatio = SupportedAspectRatio

	log.Info("generating video", "aspect", req.AspectRatio, "prompt", utils.LimitStr(req.Prompt, 100))
	// Never retried: a lost response may still have started a job.
	job, err := s.Gen.Submit(ctx, req)
	if err != nil {
		return "", fmt.Errorf("video submit: %w", err)
	}

	for polls := 1; ; polls++ {
		cur := job
		job, err = retry.Do(ctx, s.Retry, "video poll", func(ctx context.Context) (*Job, error) {
			return s.Gen.Poll(ctx, cur)
		})
		if err != nil {
			return "", err
		}
		if job.Done {
			break
		}
		if polls >= maxPolls {
			return "", fmt.Errorf("%w: %s after %d checks", ErrPollLimit, job.Name, polls)
		}
		log.Info("waiting for video to generate", "job", job.Name, "check", polls)
		if err := wait(ctx, interval); err != nil {
			return "", err
		}
	}

	if job.Err != nil {
		return "", job.Err
	}
	if len(job.FilteredReasons) > 0 {
		log.Warn("video filtered", "job", job.Name, "reasons", strings.Join(job.FilteredReasons, "; "))
	}

	data, err := retry.Do(ctx, s.Retry, "video download", func(ctx context.Context) ([]byte, error) {
		return s.Gen.Download(ctx, job)
	})
	if errors.Is(err, ErrNoVideo) {
		return "", fmt.Errorf("%w (job %s, filtered: %v)", ErrNoVideo, job.Name, job.FilteredReasons)
	}
	if err != nil {
		return "", err
	}

	out, err := utils.WriteFile(filepath.Dir(path), filepath.Base(path), data)
	if err != nil {
		return "", fmt.Errorf("save video: %w", err)
	}
	log.Info("saved video", "path", out, "bytes", len(data))
	return out, nil
}
