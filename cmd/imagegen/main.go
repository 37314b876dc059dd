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
	"vlogger/pkg/imagemeta"
	"vlogger/pkg/images"
	"vlogger/pkg/pipeline"
)

var defaultIdeas = []string{
	"A energy drink with water drops on it, ultra realistic, for a commercial.",
	"Graffiti with the text 'JSON Schema' on a brick wall.",
	"A LEGO knight fighting a huge, fire-breathing dragon on a castle wall.",
	"A stylish woman sipping coffee at a Parisian cafe, with the Eiffel Tower in the background. Shot in golden hour.",
	"An emotional, close-up portrait of an old fisherman.",
	"A vast, alien landscape on a distant planet with two suns, strange, towering rock formations, and bioluminescent plants. Epic sci-fi concept art.",
	"A whimsical illustration of a friendly fox reading a book in a cozy, cluttered library. The text 'The Midnight Reader' should be subtly integrated on a book spine.",
}

func main() {
	var (
		outDir = flag.String("out", "images", "output directory")
		count  = flag.Int("n", imagemeta.DefaultCount, "images per idea")
		aspect = flag.String("aspect", imagemeta.DefaultAspectRatio, "aspect ratio")
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
	if flag.NArg() > 0 {
		ideas = flag.Args()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cfg.NewGenAIClient(ctx)
	if err != nil {
		log.Fatal("could not create genai client", "error", err)
	}
	b := &imagemeta.Builder{
		Inferencer:  pipeline.NewInferencer(client, cfg),
		Images:      images.NewGenAI(client),
		Model:       cfg.ScriptModel,
		Count:       *count,
		AspectRatio: *aspect,
		OutputDir:   *outDir,
	}
	results, err := b.GenerateAll(ctx, ideas)
	log.Info("image generation finished", "ok", len(results), "total", len(ideas))
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
