package server

import (
	"cmp"
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"vlogger/pkg/flight"
	"vlogger/pkg/imagemeta"
	"vlogger/pkg/pipeline"
	"vlogger/pkg/queue"
	"vlogger/pkg/queue/vlog"
	"vlogger/pkg/script"
	"vlogger/pkg/utils"
)

const DefaultJobsFile = "jobs.json"

// Producer runs one vlog and reports progress to obs.
type Producer func(ctx context.Context, b script.Brief, obs pipeline.Observer) (*pipeline.Result, error)

// PipelineProducer runs p with a per-job observer.
func PipelineProducer(p *pipeline.Pipeline) Producer {
	return func(ctx context.Context, b script.Brief, obs pipeline.Observer) (*pipeline.Result, error) {
		run := *p
		run.Observer = obs
		return run.RunWithRetry(ctx, b)
	}
}

type ImageBuilder interface {
	Generate(ctx context.Context, idea string) (*imagemeta.Result, error)
}

type Options struct {
	OutputDir string
	JobsFile  string
	QueueSize int
	Images    ImageBuilder
	// ImageTTL is how long generated previews are held before they may be
	// reclaimed. Zero keeps the flight default.
	ImageTTL  time.Duration
}

type Server struct {
	Echo      *echo.Echo
	Ctx       context.Context
	OutputDir string
	JobsFile  string

	produce  Producer
	queue    queue.Queue
	jobs     *utils.SyncMap[map[string]*tracker, string, *tracker]
	submitMu sync.Mutex
	saveMu   sync.Mutex

	builder ImageBuilder
	images  *flight.Group[string, []byte]
}

func NewServer(ctx context.Context, produce Producer, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:      e,
		Ctx:       ctx,
		OutputDir: cmp.Or(opts.OutputDir, "vlogs"),
		JobsFile:  cmp.Or(opts.JobsFile, DefaultJobsFile),
		produce:   produce,
		jobs:      utils.NewSyncMap[map[string]*tracker, string, *tracker](),
		builder:   opts.Images,
	}
	s.images = flight.New(s.generatePreview)
	if opts.ImageTTL != 0 {
		s.images.Expiry(opts.ImageTTL)
	}
	s.queue = vlog.New(s.runJob, cmp.Or(opts.QueueSize, 16))
	s.queue.Start()

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/vlogs", s.handleListVlogs)
	api.POST("/vlogs", s.handlePostVlog)
	api.GET("/vlogs/:id", s.handleGetVlog)
	api.GET("/vlogs/:id/events", s.handleGetEvents)
	api.GET("/vlogs/:id/ws", s.handleGetWS)

	// artifacts
	api.GET("/vlogs/:id/preview", s.handleGetArtifact(previewFile))
	api.GET("/vlogs/:id/storyboard", s.handleGetArtifact(script.StoryboardFile))
	api.GET("/vlogs/:id/video", s.handleGetArtifact(pipeline.OutputFile))

	api.POST("/images", s.handlePostImage)
}

func (s *Server) Start(addr string) error {
	utils.Logf("Server listening at %s", addr)
	return s.Echo.Start(addr)
}

// Shutdown stops the HTTP server and the queue, then persists every job.
// Jobs cut off here are reported as interrupted on the next load.
func (s *Server) Shutdown(ctx context.Context) error {
	utils.Logf("Shutting down server...")

	shutDownErr := s.Echo.Shutdown(ctx)
	s.queue.Stop()
	saveErr := s.saveJobs()
	if shutDownErr != nil {
		return shutDownErr
	}
	return saveErr
}

// LoadJobs restores jobs saved by a previous run.
func (s *Server) LoadJobs() (int, error) {
	jobs, err := utils.Load[[]Job](s.JobsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	for _, j := range jobs {
		if !j.Finished() {
			j.Status = StatusFailed
			j.Error = "interrupted"
		}
		s.jobs.Store(j.ID, newTracker(j))
	}
	return len(jobs), nil
}

func (s *Server) saveJobs() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return utils.Save(s.JobsFile, s.list())
}

func (s *Server) runJob(ctx context.Context, id string, b script.Brief) (*pipeline.Result, error) {
	t, ok := s.jobs.Load(id)
	if !ok {
		return nil, errors.New("unknown job " + id)
	}
	t.setStatus(StatusRunning)
	return s.produce(ctx, b, t.publish)
}

func (s *Server) await(t *tracker, resp chan *pipeline.Result, errc chan error) {
	if res, ok := <-resp; ok {
		t.finish(res, nil)
	} else {
		t.finish(nil, <-errc)
	}
	if err := s.saveJobs(); err != nil {
		log.Warn("could not save jobs", "error", err)
	}
}
