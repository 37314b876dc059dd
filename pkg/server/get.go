package server

import (
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"vlogger/pkg/pipeline"
	"vlogger/pkg/utils"
)

const previewFile = "start_image.webp"

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Vlogger API",
		"status":  "ok",
		"jobs":    len(s.jobs.Snapshot()),
	})
}

// GET /api/vlogs
func (s *Server) handleListVlogs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.list())
}

// GET /api/vlogs/:id
func (s *Server) handleGetVlog(c echo.Context) error {
	t, ok := s.jobs.Load(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, utils.ErrJSON("vlog not found"))
	}
	return c.JSON(http.StatusOK, t.View())
}

// handleGetArtifact serves a file from the job's output directory.
func (s *Server) handleGetArtifact(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, ok := s.jobs.Load(c.Param("id"))
		if !ok {
			return c.JSON(http.StatusNotFound, utils.ErrJSON("vlog not found"))
		}
		path := filepath.Join(s.jobDir(t.View()), name)
		if !utils.Exists(path) {
			return c.JSON(http.StatusNotFound, utils.ErrJSON(name+" not ready"))
		}
		return c.File(path)
	}
}

func (s *Server) jobDir(j Job) string {
	if j.Result != nil && j.Result.Dir != "" {
		return j.Result.Dir
	}
	return filepath.Join(s.OutputDir, pipeline.Slug(j.Brief.Idea))
}

// list returns every job, newest first.
func (s *Server) list() []Job {
	snap := s.jobs.Snapshot()
	jobs := make([]Job, 0, len(snap))
	for _, t := range snap {
		jobs = append(jobs, t.View())
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return jobs
}
