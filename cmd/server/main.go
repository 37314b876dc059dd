package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	glog "github.com/labstack/gommon/log"

	"vlogger/pkg/config"
	"vlogger/pkg/imagemeta"
	"vlogger/pkg/images"
	"vlogger/pkg/pipeline"
	"vlogger/pkg/server"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	cfg.Apply()

	client, err := cfg.NewGenAIClient(ctx)
	if err != nil {
		log.Fatal("could not create genai client", "error", err)
	}
	inf := pipeline.NewInferencer(client, cfg)

	srv := server.NewServer(ctx, server.PipelineProducer(pipeline.NewGenAI(client, inf, cfg)), server.Options{
		OutputDir: cfg.OutputDir,
		Images: &imagemeta.Builder{
			Inferencer: inf,
			Images:     images.NewGenAI(client),
			Model:      cfg.ScriptModel,
			OutputDir:  "images",
		},
	})
	srv.Echo.Logger.SetLevel(glog.DEBUG)

	if n, err := srv.LoadJobs(); err != nil {
		log.Warnf("Failed to load %s: %v", srv.JobsFile, err)
	} else if n > 0 {
		log.Infof("Loaded %d jobs", n)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		done()
	}
	<-finishedShutDown
}
