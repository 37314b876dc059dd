package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"vlogger/pkg/schema"
)

type fakeInferencer struct {
	calls  int
	out    string
	err    error
	params *openai.ChatCompletionNewParams
	user   string
}

func (f *fakeInferencer) Infer(_ context.Context, params *openai.ChatCompletionNewParams, _, user string) (string, error) {
	f.calls++
	f.params = params
	f.user = user
	return f.out, f.err
}

func noTokens(string) (int, error) { return 0, nil }

func scriptJSON(t *testing.T, clips int) string {
	t.Helper()
	s := schema.VideoScript{Characters: []schema.CharacterProfile{{Name: "Yeti", Build: "huge"}}}
	for i := range clips {
		s.Clips = append(s.Clips, schema.Clip{
			ID:            "S" + string(rune('1'+i)),
			Subject:       schema.Subject{Description: "A large fluffy white yeti with a black face"},
			Scene:         schema.Scene{Location: "Tower Bridge, London"},
			VisualDetails: schema.VisualDetails{Action: "waves at the camera"},
			Dialogue:      schema.Dialogue{Character: "Yeti", Line: "Brr, London!"},
			DurationSec:   8,
		})
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestWriteMakesOneCallAndPersists(t *testing.T) {
	dir := t.TempDir()
	inf := &fakeInferencer{out: "```json\n" + scriptJSON(t, 3) + "\n```"}
	w := &Writer{Inferencer: inf, Model: "test-model", CountTokens: noTokens}

	s, err := w.Write(context.Background(), Brief{Idea: "Yeti tourist in London", Scenes: 4}, dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if inf.calls != 1 {
		t.Fatalf("calls = %d, want 1", inf.calls)
	}
	// returned count is not forced to the requested count
	if len(s.Clips) != 3 {
		t.Fatalf("clips = %d", len(s.Clips))
	}
	if inf.params.Model != "test-model" || schema.SchemaOf(inf.params.ResponseFormat) == nil {
		t.Fatalf("structured output not requested: %+v", inf.params)
	}
	if !strings.Contains(inf.user, "at most 4 scenes") || !strings.Contains(inf.user, DefaultTraits) {
		t.Fatalf("unexpected prompt: %s", inf.user)
	}

	for _, name := range []string{ScriptFile, MarkdownFile, StoryboardFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	md, _ := os.ReadFile(filepath.Join(dir, MarkdownFile))
	if strings.Count(string(md), "## Scene ") != 3 {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
	page, _ := os.ReadFile(filepath.Join(dir, StoryboardFile))
	if !strings.Contains(string(page), "<h2>Scene 1</h2>") {
		t.Fatalf("unexpected html:\n%s", page)
	}
}

func TestWriteRejectsInvalidScript(t *testing.T) {
	inf := &fakeInferencer{out: `{"characters":[{"name":"Yeti"}],"clips":[]}`}
	w := &Writer{Inferencer: inf, CountTokens: noTokens}
	_, err := w.Write(context.Background(), Brief{Idea: "x"}, t.TempDir())
	if !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWritePropagatesInferenceError(t *testing.T) {
	boom := errors.New("boom")
	w := &Writer{Inferencer: &fakeInferencer{err: boom}, CountTokens: noTokens}
	_, err := w.Write(context.Background(), Brief{Idea: "x"}, t.TempDir())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped inference error, got %v", err)
	}
}

func TestWriteRequiresIdea(t *testing.T) {
	inf := &fakeInferencer{}
	w := &Writer{Inferencer: inf, CountTokens: noTokens}
	if _, err := w.Write(context.Background(), Brief{Idea: "  "}, t.TempDir()); !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if inf.calls != 0 {
		t.Fatalf("inferencer called for empty idea")
	}
}

func TestBriefDefaults(t *testing.T) {
	b := Brief{Idea: " idea "}.WithDefaults()
	if b.Idea != "idea" || b.Scenes != DefaultScenes || b.VideoType != DefaultVideoType ||
		b.Style != DefaultStyle || b.Camera != DefaultCamera || b.AspectRatio != DefaultAspectRatio {
		t.Fatalf("unexpected defaults %+v", b)
	}
	b = Brief{Idea: "x", Scenes: 2, Style: "anime"}.WithDefaults()
	if b.Scenes != 2 || b.Style != "anime" {
		t.Fatalf("overrides lost %+v", b)
	}
}

func TestCheckConsistencyReportsDrift(t *testing.T) {
	s := &schema.VideoScript{Clips: []schema.Clip{
		{ID: "S1", Subject: schema.Subject{Description: "white yeti"}, Scene: schema.Scene{Location: "London"}},
		{ID: "S2", Subject: schema.Subject{Description: "white yeti"}, Scene: schema.Scene{Location: "London"}},
		{ID: "S3", Subject: schema.Subject{Description: "green robot"}, Scene: schema.Scene{Location: "Mars"}},
	}}
	drifted := CheckConsistency(s, DefaultDriftThreshold)
	if len(drifted) != 1 || drifted[0].ID != "S3" {
		t.Fatalf("unexpected drift report %+v", drifted)
	}
}

func TestCheckConsistencyLogsOnlyDriftedFields(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.New(&buf))
	t.Cleanup(func() { log.SetDefault(prev) })

	wardrobe := "red scarf and a blue wool hat with brown boots"
	s := &schema.VideoScript{Clips: []schema.Clip{
		{ID: "S1", Subject: schema.Subject{Description: "white yeti", Wardrobe: wardrobe}},
		{ID: "S2", Subject: schema.Subject{Description: "green robot", Wardrobe: strings.Replace(wardrobe, "brown", "black", 1)}},
	}}
	drifted := CheckConsistency(s, DefaultDriftThreshold)
	if len(drifted) != 1 || drifted[0].ID != "S2" {
		t.Fatalf("unexpected drift report %+v", drifted)
	}
	out := buf.String()
	if !strings.Contains(out, "subject.description") {
		t.Fatalf("drifted field not logged:\n%s", out)
	}
	if strings.Contains(out, "subject.wardrobe") {
		t.Fatalf("field below threshold logged:\n%s", out)
	}
}
