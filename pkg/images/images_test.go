package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeModels struct {
	imagesResp  *genai.GenerateImagesResponse
	contentResp *genai.GenerateContentResponse
	err         error

	imageConfig *genai.GenerateImagesConfig
	contents    []*genai.Content
	config      *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateImages(_ context.Context, _, _ string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.imageConfig = config
	return f.imagesResp, f.err
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.config = config
	return f.contentResp, f.err
}

func TestGenerateUsesSixteenByNine(t *testing.T) {
	data := pngBytes(t)
	m := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: data, MIMEType: "image/png"}}},
	}}
	img, err := newGenAI(m).Generate(context.Background(), "a yeti")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Equal(img.Bytes, data) {
		t.Fatalf("unexpected bytes")
	}
	if m.imageConfig.AspectRatio != "16:9" || m.imageConfig.NumberOfImages != 1 {
		t.Fatalf("unexpected config %+v", m.imageConfig)
	}
}

func TestGenerateAllFiltered(t *testing.T) {
	m := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "unsafe"}},
	}}
	if _, err := newGenAI(m).Generate(context.Background(), "x"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestEditSendsPrefixedPromptAndImage(t *testing.T) {
	src := &Image{Bytes: pngBytes(t), MIMEType: "image/png"}
	edited := []byte("edited")
	m := &fakeModels{contentResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "here you go"},
			{InlineData: &genai.Blob{Data: edited, MIMEType: "image/png"}},
		}}}},
	}}
	img, err := newGenAI(m).Edit(context.Background(), src, `{"clips":[]}`)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !bytes.Equal(img.Bytes, edited) {
		t.Fatalf("unexpected edit result")
	}
	parts := m.contents[0].Parts
	if len(parts) != 2 || !strings.HasPrefix(parts[0].Text, editPrefix) || parts[1].InlineData == nil {
		t.Fatalf("unexpected request parts %+v", parts)
	}
	if len(m.config.ResponseModalities) != 2 {
		t.Fatalf("expected text and image modalities")
	}
}

func TestEditWithoutImagePart(t *testing.T) {
	m := &fakeModels{contentResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "no"}}}}},
	}}
	_, err := newGenAI(m).Edit(context.Background(), &Image{Bytes: pngBytes(t)}, "x")
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestSaveAndWebP(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(&Image{Bytes: pngBytes(t), MIMEType: "image/png"}, dir, "start_image.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "start_image.png") {
		t.Fatalf("path = %s", path)
	}
	loaded, err := Load(path)
	if err != nil || loaded.MIMEType != "image/png" {
		t.Fatalf("Load: %v %+v", err, loaded)
	}
	preview, err := SaveWebP(path)
	if err != nil {
		t.Fatalf("SaveWebP: %v", err)
	}
	data, err := os.ReadFile(preview)
	if err != nil || !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("expected webp file, err=%v", err)
	}
}
