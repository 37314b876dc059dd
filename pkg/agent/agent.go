// Package agent is an interactive Gemini chat that can call tools exposed by
// MCP servers.
package agent

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"

	"vlogger/pkg/utils"
)

const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultMaxRounds = 100
)

var ErrToolLimit = errors.New("tool call limit reached")

// Model is the subset of *genai.Models used by the agent.
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// StreamModel is implemented by models that can stream their answer, such as
// *genai.Models.
type StreamModel interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// ToolSession is the subset of *mcp.ClientSession used by the agent.
type ToolSession interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

type Agent struct {
	Model     Model
	ModelName string
	MaxRounds int
	Now       func() time.Time

	sessions []ToolSession
	tools    map[string]ToolSession
	decls    []*genai.FunctionDeclaration
	history  []*genai.Content
}

func New(model Model, sessions ...ToolSession) *Agent {
	return &Agent{
		Model:     model,
		ModelName: DefaultModel,
		MaxRounds: DefaultMaxRounds,
		Now:       time.Now,
		sessions:  sessions,
		tools:     make(map[string]ToolSession),
	}
}

// LoadTools lists the tools of every session and exposes them to the model.
// When two servers offer the same tool name the first one wins.
func (a *Agent) LoadTools(ctx context.Context) error {
	for _, s := range a.sessions {
		params := &mcp.ListToolsParams{}
		for {
			res, err := s.ListTools(ctx, params)
			if err != nil {
				return fmt.Errorf("list tools: %w", err)
			}
			for _, t := range res.Tools {
				if _, dup := a.tools[t.Name]; dup {
					log.Warn("duplicate tool name, keeping the first", "tool", t.Name)
					continue
				}
				a.tools[t.Name] = s
				a.decls = append(a.decls, &genai.FunctionDeclaration{
					Name:                 t.Name,
					Description:          t.Description,
					ParametersJsonSchema: t.InputSchema,
				})
			}
			if res.NextCursor == "" {
				break
			}
			params = &mcp.ListToolsParams{Cursor: res.NextCursor}
		}
	}
	log.Debug("loaded tools", "count", len(a.decls))
	return nil
}

// Tools returns the names of the loaded tools.
func (a *Agent) Tools() []string {
	names := make([]string, 0, len(a.decls))
	for _, d := range a.decls {
		names = append(names, d.Name)
	}
	return names
}

func (a *Agent) config() *genai.GenerateContentConfig {
	now := a.Now()
	zone, _ := now.Zone()
	system := fmt.Sprintf(`Very important: the user's time zone is %s. The current date is %s.
Any dates before this are in the past, and any dates after this are in the future. When dealing with modern entities, companies or people, and when the user asks for the "latest", "most recent" or "today's" information, do not assume your knowledge is up to date; use the available tools.
You can and should speak any language the user asks you to speak, or use the user's language.`, zone, now.Format(time.DateOnly))

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	if len(a.decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: a.decls}}
	}
	return cfg
}

// Send runs one user turn: the model is called until it answers without
// requesting tools. On error the turn is dropped from the history.
func (a *Agent) Send(ctx context.Context, text string) (string, error) {
	return a.SendStream(ctx, text, nil)
}

// SendStream is Send with the answer also written to w as it arrives. Models
// that cannot stream write the whole answer at once.
func (a *Agent) SendStream(ctx context.Context, text string, w io.Writer) (string, error) {
	mark := len(a.history)
	reply, err := a.send(ctx, text, w)
	if err != nil {
		a.history = a.history[:mark]
	}
	return reply, err
}

func (a *Agent) send(ctx context.Context, text string, w io.Writer) (string, error) {
	a.history = append(a.history, genai.NewContentFromText(text, genai.RoleUser))
	cfg := a.config()
	maxRounds := cmp.Or(a.MaxRounds, DefaultMaxRounds)

	for range maxRounds + 1 {
		resp, err := a.generate(ctx, cfg, w)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
			a.history = append(a.history, resp.Candidates[0].Content)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, a.callTool(ctx, call))
		}
		a.history = append(a.history, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	return "", ErrToolLimit
}

// generate asks the model for its next turn. With a writer and a streaming
// model the answer text is forwarded chunk by chunk and the chunks are merged
// back into a single response.
func (a *Agent) generate(ctx context.Context, cfg *genai.GenerateContentConfig, w io.Writer) (*genai.GenerateContentResponse, error) {
	sm, ok := a.Model.(StreamModel)
	if w == nil || !ok {
		resp, err := a.Model.GenerateContent(ctx, a.ModelName, a.history, cfg)
		if err == nil && w != nil {
			_, _ = io.WriteString(w, resp.Text())
		}
		return resp, err
	}

	content := &genai.Content{Role: genai.RoleModel}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			content.Parts = append(content.Parts, genai.NewPartFromText(text.String()))
			text.Reset()
		}
	}
	for chunk, err := range sm.GenerateContentStream(ctx, a.ModelName, a.history, cfg) {
		if err != nil {
			return nil, err
		}
		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		for _, p := range chunk.Candidates[0].Content.Parts {
			if p.Text != "" && !p.Thought {
				_, _ = io.WriteString(w, p.Text)
				text.WriteString(p.Text)
				continue
			}
			flush()
			content.Parts = append(content.Parts, p)
		}
	}
	flush()
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}, nil
}

func (a *Agent) callTool(ctx context.Context, call *genai.FunctionCall) *genai.Part {
	respond := func(key, value string) *genai.Part {
		p := genai.NewPartFromFunctionResponse(call.Name, map[string]any{key: value})
		p.FunctionResponse.ID = call.ID
		return p
	}

	s, ok := a.tools[call.Name]
	if !ok {
		return respond("error", "unknown tool "+call.Name)
	}
	log.Info("calling tool", "tool", call.Name)
	log.Debug("tool arguments", "tool", call.Name, "args", utils.PrettyJSON(call.Args))
	res, err := s.CallTool(ctx, &mcp.CallToolParams{Name: call.Name, Arguments: call.Args})
	if err != nil {
		return respond("error", err.Error())
	}

	var sb strings.Builder
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(t.Text)
		}
	}
	if res.IsError {
		return respond("error", sb.String())
	}
	return respond("output", sb.String())
}

var (
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	modelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// IsExit reports whether line ends the chat.
func IsExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// Loop reads user lines from in until EOF, an exit word or ctx is done.
// Per-turn errors are printed and the chat continues.
func (a *Agent) Loop(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, modelStyle.Render("Gemini MCP agent ready"))
	fmt.Fprintln(out, hintStyle.Render("Type 'exit' to quit"))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, userStyle.Render("You: "))
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if IsExit(line) {
			fmt.Fprintln(out, hintStyle.Render("Goodbye!"))
			return nil
		}
		if line == "" {
			continue
		}

		rw := &replyWriter{w: out}
		_, err := a.SendStream(ctx, line, rw)
		if err != nil {
			if rw.started {
				fmt.Fprintln(out)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, errStyle.Render("Error: "+err.Error()))
			continue
		}
		rw.start()
		fmt.Fprint(out, "\n\n")
	}
}

// replyWriter prints the model label before the first chunk of an answer.
type replyWriter struct {
	w       io.Writer
	started bool
}

func (r *replyWriter) start() {
	if !r.started {
		r.started = true
		fmt.Fprint(r.w, modelStyle.Render("Gemini: "))
	}
}

func (r *replyWriter) Write(p []byte) (int, error) {
	r.start()
	return r.w.Write(p)
}
