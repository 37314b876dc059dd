package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"

	"vlogger/pkg/images"
	"vlogger/pkg/pipeline"
	"vlogger/pkg/queue/vlog"
	"vlogger/pkg/script"
	"vlogger/pkg/utils"
)

// POST /api/vlogs
func (s *Server) handlePostVlog(c echo.Context) error {
	var b script.Brief
	if err := c.Bind(&b); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("invalid json"))
	}
	b.Idea = strings.TrimSpace(b.Idea)
	if b.Idea == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("idea is required"))
	}

	job, reused, err := s.submit(b)
	switch {
	case errors.Is(err, vlog.ErrFull):
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON(err.Error()))
	case err != nil:
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	case reused:
		return c.JSON(http.StatusOK, job)
	}
	return c.JSON(http.StatusAccepted, job)
}

// submit queues b unless a pending job would write to the same output
// directory, in which case that job is returned.
func (s *Server) submit(b script.Brief) (Job, bool, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	slug := pipeline.Slug(b.Idea)
	for _, t := range s.jobs.Snapshot() {
		j := t.View()
		if !j.Finished() && pipeline.Slug(j.Brief.Idea) == slug {
			log.Info("reusing pending vlog", "id", j.ID, "idea", utils.LimitStr(b.Idea, 50))
			return j, true, nil
		}
	}

	now := time.Now()
	id := ksuid.New().String()
	t := newTracker(Job{ID: id, Brief: b, Status: StatusQueued, Created: now, Updated: now})
	s.jobs.Store(id, t)

	resp, errc, err := s.queue.Add(id, b)
	if err != nil {
		s.jobs.Delete(id)
		return Job{}, false, err
	}
	go s.await(t, resp, errc)
	return t.View(), false, nil
}

type imageRequest struct {
	Idea  string `json:"idea"`
	Force bool   `json:"force,omitempty"`
}

// POST /api/images
func (s *Server) handlePostImage(c echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("invalid json"))
	}
	req.Idea = strings.TrimSpace(req.Idea)
	if req.Idea == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("idea is required"))
	}
	if s.builder == nil {
		return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON("image generation not configured"))
	}

	if req.Force {
		s.images.Forget(req.Idea)
	}
	data, cached, err := s.images.Get(c.Request().Context(), req.Idea)
	if err != nil {
		log.Error("image generation failed", "idea", utils.LimitStr(req.Idea, 50), "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("generation failed: "+err.Error()))
	}
	if cached {
		log.Debug("image cache hit", "idea", utils.LimitStr(req.Idea, 50))
	}
	return c.Blob(http.StatusOK, "image/webp", data)
}

func (s *Server) generatePreview(ctx context.Context, idea string) ([]byte, error) {
	res, err := s.builder.Generate(ctx, idea)
	if err != nil {
		return nil, err
	}
	if len(res.Images) == 0 {
		return nil, images.ErrNoImage
	}
	data, err := os.ReadFile(res.Images[0])
	if err != nil {
		return nil, err
	}
	return images.EncodeWebP(data)
}
