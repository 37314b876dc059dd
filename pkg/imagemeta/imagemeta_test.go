package imagemeta

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"

	"vlogger/pkg/images"
	"vlogger/pkg/schema"
)

type fakeInferencer struct {
	out    string
	params *openai.ChatCompletionNewParams
}

func (f *fakeInferencer) Infer(_ context.Context, params *openai.ChatCompletionNewParams, _, _ string) (string, error) {
	f.params = params
	return f.out, nil
}

type fakeImages struct {
	n      int
	aspect string
	prompt string
	err    error
}

func (f *fakeImages) GenerateN(_ context.Context, prompt string, n int, aspect string) ([]*images.Image, error) {
	f.n, f.aspect, f.prompt = n, aspect, prompt
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*images.Image, n)
	for i := range out {
		out[i] = &images.Image{Bytes: []byte("png"), MIMEType: "image/png"}
	}
	return out, nil
}

func promptJSON(t *testing.T) string {
	t.Helper()
	p := schema.ImagePrompt{Subject: schema.ImageSubject{Primary: "a LEGO knight"}}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGenerateSavesImagesAndPrompt(t *testing.T) {
	dir := t.TempDir()
	inf := &fakeInferencer{out: "```json\n" + promptJSON(t) + "\n```"}
	img := &fakeImages{}
	b := &Builder{Inferencer: inf, Images: img, OutputDir: dir}

	res, err := b.Generate(context.Background(), "A LEGO knight fighting a huge, fire-breathing dragon")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img.n != DefaultCount || img.aspect != DefaultAspectRatio {
		t.Fatalf("unexpected image request n=%d aspect=%s", img.n, img.aspect)
	}
	if strings.HasPrefix(img.prompt, "```") {
		t.Fatalf("fences passed to image model")
	}
	if schema.SchemaOf(inf.params.ResponseFormat) == nil {
		t.Fatalf("structured output not requested")
	}
	want := []string{
		filepath.Join(dir, "a-lego-knight-fighting-a-huge-1.png"),
		filepath.Join(dir, "a-lego-knight-fighting-a-huge-2.png"),
	}
	if len(res.Images) != 2 || res.Images[0] != want[0] || res.Images[1] != want[1] {
		t.Fatalf("images = %v, want %v", res.Images, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "a-lego-knight-fighting-a-huge.json")); err != nil {
		t.Fatalf("prompt not saved: %v", err)
	}
}

func TestPromptRejectsEmptySubject(t *testing.T) {
	b := &Builder{Inferencer: &fakeInferencer{out: `{"meta":{}}`}}
	if _, _, err := b.Prompt(context.Background(), "x"); !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateAllContinuesAfterFailure(t *testing.T) {
	boom := errors.New("quota")
	b := &Builder{
		Inferencer: &fakeInferencer{out: promptJSON(t)},
		Images:     &fakeImages{err: boom},
		OutputDir:  t.TempDir(),
	}
	res, err := b.GenerateAll(context.Background(), []string{"one", "two"})
	if !errors.Is(err, boom) || len(res) != 0 {
		t.Fatalf("res=%v err=%v", res, err)
	}
	if !strings.Contains(err.Error(), `"one"`) || !strings.Contains(err.Error(), `"two"`) {
		t.Fatalf("expected both ideas reported: %v", err)
	}
}

func TestFileSlug(t *testing.T) {
	cases := map[string]string{
		"Graffiti with the text 'JSON Schema' on a brick wall.": "graffiti-with-the-text-json-s",
		"Café!":  "caf",
		"???":    "image",
		"A B":    "a-b",
	}
	for in, want := range cases {
		if got := FileSlug(in); got != want {
			t.Fatalf("FileSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
