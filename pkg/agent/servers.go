package agent

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

// ServerConfig describes one MCP server: either a local command speaking
// stdio or a remote streamable HTTP endpoint.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Preset returns a built-in server configuration.
func Preset(name string) (ServerConfig, bool) {
	switch name {
	case "airbnb":
		return ServerConfig{
			Name:    "airbnb",
			Command: "npx",
			Args:    []string{"-y", "@openbnb/mcp-server-airbnb", "--ignore-robots-txt"},
		}, true
	case "deepwiki":
		return ServerConfig{Name: "deepwiki", URL: "https://mcp.deepwiki.com/mcp"}, true
	case "pipedream":
		return Pipedream("gmail, google_calendar"), true
	}
	return ServerConfig{}, false
}

// Pipedream returns the hosted Pipedream server. Without PIPEDREAM_API_KEY an
// ephemeral development token is used.
func Pipedream(apps string) ServerConfig {
	token := cmp.Or(os.Getenv("PIPEDREAM_API_KEY"), "devtok_"+uuid.NewString())
	return ServerConfig{
		Name: "pipedream",
		URL:  "https://remote.mcp.pipedream.net",
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"x-pd-app-slug": apps,
		},
	}
}

// LoadServers reads a YAML list of server configurations.
func LoadServers(path string) ([]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Servers []ServerConfig `yaml:"servers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse servers: %w", err)
	}
	for i, s := range doc.Servers {
		if (s.Command == "") == (s.URL == "") {
			return nil, fmt.Errorf("servers[%d] %q: exactly one of command or url is required", i, s.Name)
		}
	}
	return doc.Servers, nil
}

// Transport builds the MCP transport for the configuration.
func (c ServerConfig) Transport() mcp.Transport {
	if c.Command != "" {
		return &mcp.CommandTransport{Command: exec.Command(c.Command, c.Args...)}
	}
	client := http.DefaultClient
	if len(c.Headers) > 0 {
		client = &http.Client{Transport: &headerTransport{headers: c.Headers, base: http.DefaultTransport}}
	}
	return &mcp.StreamableClientTransport{Endpoint: c.URL, HTTPClient: client}
}

// Connect opens a session to every server. Already opened sessions are
// closed if a later one fails.
func Connect(ctx context.Context, configs []ServerConfig) ([]*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "vlogger-agent", Version: "v1.0.0"}, nil)
	var sessions []*mcp.ClientSession
	for _, c := range configs {
		s, err := client.Connect(ctx, c.Transport(), nil)
		if err != nil {
			for _, open := range sessions {
				open.Close()
			}
			return nil, fmt.Errorf("connect %s: %w", c.Name, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
