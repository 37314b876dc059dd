package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"vlogger/pkg/agent"
	"vlogger/pkg/config"
)

func main() {
	var (
		model   = flag.String("model", agent.DefaultModel, "Gemini model")
		servers = flag.String("servers", "", "YAML file listing MCP servers")
		presets = flag.String("preset", "airbnb", "comma separated built-in servers: airbnb, deepwiki, pipedream")
	)
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal(config.ErrMissingCredentials)
	}
	cfg.Apply()

	var configs []agent.ServerConfig
	if *servers != "" {
		configs, err = agent.LoadServers(*servers)
		if err != nil {
			log.Fatal(err)
		}
	}
	for _, name := range strings.Split(*presets, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, ok := agent.Preset(name)
		if !ok {
			log.Fatal("unknown preset", "name", name)
		}
		configs = append(configs, c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cfg.NewGenAIClient(ctx)
	if err != nil {
		log.Fatal("could not create genai client", "error", err)
	}

	sessions, err := agent.Connect(ctx, configs)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	tools := make([]agent.ToolSession, 0, len(sessions))
	for _, s := range sessions {
		tools = append(tools, s)
	}
	a := agent.New(client.Models, tools...)
	a.ModelName = *model
	if err := a.LoadTools(ctx); err != nil {
		log.Fatal(err)
	}
	log.Info("tools ready", "servers", len(sessions), "tools", len(a.Tools()))

	if err := a.Loop(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error(err)
	}
}
