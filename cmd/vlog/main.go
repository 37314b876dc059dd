package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"vlogger/pkg/config"
	"vlogger/pkg/pipeline"
	"vlogger/pkg/script"
)

// defaultIdeas run when no batch file is given.
var defaultIdeas = []config.Idea{
	{
		Idea:      "Tourist in London seeing all of the best places",
		Character: "Large fluffy white yeti with a black face",
		Traits:    "funny",
		Style:     "realistic, 4k, high quality, vlog",
		Camera:    "front, close-up speaking into the camera",
	},
	{
		Idea:      "A stormtrooper lost as a tourist in Tokyo",
		Character: "Imperial stormtrooper in slightly scuffed white armour",
		Traits:    "confused, polite, easily excited",
	},
}

func main() {
	var (
		batchPath = flag.String("config", "", "YAML batch file with ideas")
		scenes    = flag.Int("scenes", 0, "scenes per vlog (overrides the batch file)")
		outDir    = flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
		model     = flag.String("model", "", "script model (overrides SCRIPT_MODEL)")
	)
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	cfg.Apply()

	ideas := defaultIdeas
	if *batchPath != "" {
		batch, err := config.LoadBatch(*batchPath)
		if err != nil {
			log.Fatal(err)
		}
		ideas = batch.Ideas
		if batch.OutputDir != "" {
			cfg.OutputDir = batch.OutputDir
		}
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *model != "" {
		cfg.ScriptModel = *model
	}

	briefs := make([]script.Brief, 0, len(ideas))
	for _, idea := range ideas {
		b := briefOf(idea)
		if *scenes > 0 {
			b.Scenes = *scenes
		}
		briefs = append(briefs, b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cfg.NewGenAIClient(ctx)
	if err != nil {
		log.Fatal("could not create genai client", "error", err)
	}
	p := pipeline.NewGenAI(client, pipeline.NewInferencer(client, cfg), cfg)
	p.Observer = func(e pipeline.Event) {
		log.Debug("progress", "stage", e.Stage, "scene", e.Scene, "total", e.Total, "path", e.Path)
	}

	results, err := p.RunBatch(ctx, briefs)
	for _, r := range results {
		log.Info("vlog done", "idea", r.Idea, "output", r.Output)
	}
	if err != nil {
		log.Error("batch finished with failures", "ok", len(results), "total", len(briefs), "error", err)
		os.Exit(1)
	}
}

func briefOf(i config.Idea) script.Brief {
	return script.Brief{
		Idea:        i.Idea,
		Scenes:      i.Scenes,
		Character:   i.Character,
		Traits:      i.Traits,
		VideoType:   i.VideoType,
		Style:       i.Style,
		Camera:      i.Camera,
		AspectRatio: i.AspectRatio,
	}
}
