package agent

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"
)

type fakeSession struct {
	pages [][]*mcp.Tool
	calls []*mcp.CallToolParams
	reply string
	fail  bool
}

func (f *fakeSession) ListTools(_ context.Context, p *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	i := 0
	if p.Cursor != "" {
		i = int(p.Cursor[0] - '0')
	}
	res := &mcp.ListToolsResult{Tools: f.pages[i]}
	if i+1 < len(f.pages) {
		res.NextCursor = string(rune('0' + i + 1))
	}
	return res, nil
}

func (f *fakeSession) CallTool(_ context.Context, p *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, p)
	if f.fail {
		return nil, errors.New("tool down")
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: f.reply}}}, nil
}

// scriptedModel returns the queued responses in order and records what it saw.
type scriptedModel struct {
	responses []*genai.GenerateContentResponse
	err       error
	seen      [][]*genai.Content
	configs   []*genai.GenerateContentConfig
}

func (m *scriptedModel) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.seen = append(m.seen, append([]*genai.Content(nil), contents...))
	m.configs = append(m.configs, cfg)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("no more responses")
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r, nil
}

// streamingModel streams the queued chunk sets in order, then fails with err.
type streamingModel struct {
	scriptedModel
	streams [][]*genai.GenerateContentResponse
}

func (m *streamingModel) GenerateContentStream(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	m.seen = append(m.seen, append([]*genai.Content(nil), contents...))
	var chunks []*genai.GenerateContentResponse
	if len(m.streams) > 0 {
		chunks = m.streams[0]
		m.streams = m.streams[1:]
	}
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

type chunkWriter struct{ chunks []string }

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.chunks = append(w.chunks, string(p))
	return len(p), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(text, genai.RoleModel),
	}}}
}

func callResponse(id, name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromParts([]*genai.Part{{FunctionCall: &genai.FunctionCall{ID: id, Name: name, Args: args}}}, genai.RoleModel),
	}}}
}

func fixedNow() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

func TestLoadToolsPaginatesAndKeepsFirstDuplicate(t *testing.T) {
	a := &fakeSession{pages: [][]*mcp.Tool{{{Name: "search"}}, {{Name: "fetch"}}}}
	b := &fakeSession{pages: [][]*mcp.Tool{{{Name: "search"}, {Name: "wiki"}}}}
	ag := New(&scriptedModel{}, a, b)
	if err := ag.LoadTools(context.Background()); err != nil {
		t.Fatalf("LoadTools: %v", err)
	}
	if got := strings.Join(ag.Tools(), ","); got != "search,fetch,wiki" {
		t.Fatalf("tools = %s", got)
	}
	if ag.tools["search"] != a {
		t.Fatalf("expected first session to own search")
	}
}

func TestSendAnswersTextDirectly(t *testing.T) {
	m := &scriptedModel{responses: []*genai.GenerateContentResponse{textResponse("hello")}}
	ag := New(m)
	ag.Now = fixedNow
	got, err := ag.Send(context.Background(), "hi")
	if err != nil || got != "hello" {
		t.Fatalf("Send = %q, %v", got, err)
	}
	cfg := m.configs[0]
	if cfg.Tools != nil {
		t.Fatalf("expected no tools without sessions")
	}
	if *cfg.Temperature != 0 {
		t.Fatalf("temperature = %v", *cfg.Temperature)
	}
	if !strings.Contains(cfg.SystemInstruction.Parts[0].Text, "2025-09-01") {
		t.Fatalf("system instruction lacks date: %q", cfg.SystemInstruction.Parts[0].Text)
	}
	if len(ag.history) != 2 {
		t.Fatalf("history = %d, want 2", len(ag.history))
	}
}

func TestSendRoutesToolCalls(t *testing.T) {
	s := &fakeSession{pages: [][]*mcp.Tool{{{Name: "weather", Description: "forecast"}}}, reply: "sunny"}
	m := &scriptedModel{responses: []*genai.GenerateContentResponse{
		callResponse("c1", "weather", map[string]any{"city": "Paris"}),
		textResponse("It is sunny."),
	}}
	ag := New(m, s)
	if err := ag.LoadTools(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, err := ag.Send(context.Background(), "weather in Paris?")
	if err != nil || got != "It is sunny." {
		t.Fatalf("Send = %q, %v", got, err)
	}
	if len(s.calls) != 1 || s.calls[0].Name != "weather" {
		t.Fatalf("calls = %+v", s.calls)
	}
	if m.configs[0].Tools[0].FunctionDeclarations[0].Description != "forecast" {
		t.Fatalf("declaration not forwarded")
	}

	second := m.seen[1]
	last := second[len(second)-1].Parts[0].FunctionResponse
	if last == nil || last.ID != "c1" || last.Response["output"] != "sunny" {
		t.Fatalf("unexpected function response %+v", last)
	}
}

func TestSendReportsToolErrorsToModel(t *testing.T) {
	s := &fakeSession{pages: [][]*mcp.Tool{{{Name: "weather"}}}, fail: true}
	m := &scriptedModel{responses: []*genai.GenerateContentResponse{
		callResponse("c1", "weather", nil),
		callResponse("c2", "missing", nil),
		textResponse("sorry"),
	}}
	ag := New(m, s)
	_ = ag.LoadTools(context.Background())
	if _, err := ag.Send(context.Background(), "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	for i, want := range []string{"tool down", "unknown tool missing"} {
		msgs := m.seen[i+1]
		fr := msgs[len(msgs)-1].Parts[0].FunctionResponse
		if fr.Response["error"] != want {
			t.Fatalf("response %d = %+v", i, fr.Response)
		}
	}
}

func TestSendStopsAtRoundLimitAndRollsBack(t *testing.T) {
	s := &fakeSession{pages: [][]*mcp.Tool{{{Name: "loop"}}}, reply: "again"}
	var rs []*genai.GenerateContentResponse
	for i := range 10 {
		rs = append(rs, callResponse(string(rune('a'+i)), "loop", nil))
	}
	m := &scriptedModel{responses: rs}
	ag := New(m, s)
	ag.MaxRounds = 3
	_ = ag.LoadTools(context.Background())

	_, err := ag.Send(context.Background(), "go")
	if !errors.Is(err, ErrToolLimit) {
		t.Fatalf("expected ErrToolLimit, got %v", err)
	}
	if len(s.calls) != 4 {
		t.Fatalf("tool calls = %d, want 4", len(s.calls))
	}
	if len(ag.history) != 0 {
		t.Fatalf("history not rolled back: %d", len(ag.history))
	}
}

func TestLoopHandlesErrorsAndExit(t *testing.T) {
	m := &scriptedModel{responses: []*genai.GenerateContentResponse{textResponse("pong")}}
	ag := New(m)
	var out strings.Builder
	in := strings.NewReader("\nping\nagain\nquit\nnever\n")
	if err := ag.Loop(context.Background(), in, &out); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "pong") {
		t.Fatalf("missing reply in %q", s)
	}
	if !strings.Contains(s, "no more responses") {
		t.Fatalf("missing error in %q", s)
	}
	if len(m.seen) != 2 {
		t.Fatalf("model calls = %d, want 2", len(m.seen))
	}
}

func TestIsExit(t *testing.T) {
	for _, s := range []string{"exit", " QUIT ", "q"} {
		if !IsExit(s) {
			t.Fatalf("%q should exit", s)
		}
	}
	if IsExit("question") {
		t.Fatalf("question should not exit")
	}
}

func TestLoadServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")
	doc := `servers:
  - name: airbnb
    command: npx
    args: ["-y", "@openbnb/mcp-server-airbnb"]
  - name: wiki
    url: https://mcp.deepwiki.com/mcp
    headers:
      x-token: abc
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(servers) != 2 || servers[0].Args[1] != "@openbnb/mcp-server-airbnb" || servers[1].Headers["x-token"] != "abc" {
		t.Fatalf("unexpected servers %+v", servers)
	}
	if _, ok := servers[0].Transport().(*mcp.CommandTransport); !ok {
		t.Fatalf("expected command transport")
	}
	if _, ok := servers[1].Transport().(*mcp.StreamableClientTransport); !ok {
		t.Fatalf("expected streamable transport")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("servers:\n  - name: both\n    command: x\n    url: y\n"), 0o644)
	if _, err := LoadServers(bad); err == nil {
		t.Fatalf("expected error for ambiguous server")
	}
}

func TestPipedreamToken(t *testing.T) {
	t.Setenv("PIPEDREAM_API_KEY", "")
	c := Pipedream("gmail")
	if !strings.HasPrefix(c.Headers["Authorization"], "Bearer devtok_") || c.Headers["x-pd-app-slug"] != "gmail" {
		t.Fatalf("unexpected headers %v", c.Headers)
	}
	t.Setenv("PIPEDREAM_API_KEY", "secret")
	if Pipedream("gmail").Headers["Authorization"] != "Bearer secret" {
		t.Fatalf("api key not used")
	}
	if _, ok := Preset("deepwiki"); !ok {
		t.Fatalf("missing deepwiki preset")
	}
}

func TestSendStreamWritesChunksAsTheyArrive(t *testing.T) {
	m := &streamingModel{streams: [][]*genai.GenerateContentResponse{{
		textResponse("Hel"), textResponse("lo "), textResponse("there"),
	}}}
	ag := New(m)
	var w chunkWriter
	got, err := ag.SendStream(context.Background(), "hi", &w)
	if err != nil || got != "Hello there" {
		t.Fatalf("SendStream = %q, %v", got, err)
	}
	if strings.Join(w.chunks, "|") != "Hel|lo |there" {
		t.Fatalf("chunks = %q", w.chunks)
	}
	if len(ag.history) != 2 {
		t.Fatalf("history = %d, want 2", len(ag.history))
	}
	parts := ag.history[1].Parts
	if len(parts) != 1 || parts[0].Text != "Hello there" || ag.history[1].Role != genai.RoleModel {
		t.Fatalf("merged model turn = %+v", ag.history[1])
	}
}

func TestSendStreamCollectsToolCallsFromChunks(t *testing.T) {
	s := &fakeSession{pages: [][]*mcp.Tool{{{Name: "weather"}}}, reply: "sunny"}
	m := &streamingModel{streams: [][]*genai.GenerateContentResponse{
		{textResponse("Checking. "), callResponse("c1", "weather", map[string]any{"city": "Oslo"})},
		{textResponse("It is "), textResponse("sunny.")},
	}}
	ag := New(m, s)
	if err := ag.LoadTools(context.Background()); err != nil {
		t.Fatal(err)
	}
	var w chunkWriter
	got, err := ag.SendStream(context.Background(), "weather in Oslo?", &w)
	if err != nil || got != "It is sunny." {
		t.Fatalf("SendStream = %q, %v", got, err)
	}
	if len(s.calls) != 1 || s.calls[0].Name != "weather" {
		t.Fatalf("tool calls = %+v", s.calls)
	}
	first := m.seen[1][1]
	if len(first.Parts) != 2 || first.Parts[0].Text != "Checking. " || first.Parts[1].FunctionCall == nil {
		t.Fatalf("first model turn = %+v", first.Parts)
	}
	if strings.Join(w.chunks, "") != "Checking. It is sunny." {
		t.Fatalf("streamed %q", w.chunks)
	}
}

func TestSendStreamErrorRollsBack(t *testing.T) {
	m := &streamingModel{streams: [][]*genai.GenerateContentResponse{{textResponse("partial")}}}
	m.err = errors.New("stream broke")
	ag := New(m)
	var w chunkWriter
	if _, err := ag.SendStream(context.Background(), "hi", &w); err == nil || err.Error() != "stream broke" {
		t.Fatalf("expected stream error, got %v", err)
	}
	if len(ag.history) != 0 {
		t.Fatalf("history not rolled back: %d", len(ag.history))
	}
}

func TestLoopStreamsReplies(t *testing.T) {
	m := &streamingModel{streams: [][]*genai.GenerateContentResponse{{textResponse("po"), textResponse("ng")}}}
	ag := New(m)
	var out strings.Builder
	if err := ag.Loop(context.Background(), strings.NewReader("ping\nexit\n"), &out); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	if s := out.String(); !strings.Contains(s, "pong\n\n") || !strings.Contains(s, "Gemini") {
		t.Fatalf("unexpected output %q", s)
	}
}
