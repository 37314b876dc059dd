// Package images produces and edits reference images for video scenes.
package images

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"google.golang.org/genai"

	"vlogger/pkg/utils"
)

const (
	DefaultImageModel = "imagen-3.0-generate-002"
	DefaultEditModel  = "gemini-2.0-flash-preview-image-generation"

	editPrefix = "Edit the image to match the following prompt: "
)

var ErrNoImage = errors.New("model returned no image")

type Image struct {
	Bytes    []byte
	MIMEType string
}

// GenAI converts the image into the form the genai SDK expects as a reference image.
func (i *Image) GenAI() *genai.Image {
	if i == nil {
		return nil
	}
	return &genai.Image{ImageBytes: i.Bytes, MIMEType: i.mimeType()}
}

func (i *Image) mimeType() string {
	if i.MIMEType != "" {
		return i.MIMEType
	}
	return http.DetectContentType(i.Bytes)
}

// Generator creates a start image and edits it for later scenes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
	Edit(ctx context.Context, src *Image, prompt string) (*Image, error)
}

// Models is the subset of *genai.Models used for images.
type Models interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GenAI struct {
	models      Models
	ImageModel  string
	EditModel   string
	AspectRatio string
}

func NewGenAI(client *genai.Client) *GenAI {
	return newGenAI(client.Models)
}

func newGenAI(models Models) *GenAI {
	return &GenAI{
		models:      models,
		ImageModel:  DefaultImageModel,
		EditModel:   DefaultEditModel,
		AspectRatio: "16:9",
	}
}

// Generate creates a single image from prompt.
func (g *GenAI) Generate(ctx context.Context, prompt string) (*Image, error) {
	imgs, err := g.GenerateN(ctx, prompt, 1, g.AspectRatio)
	if err != nil {
		return nil, err
	}
	return imgs[0], nil
}

// GenerateN creates up to n images. At least one image is returned on success.
func (g *GenAI) GenerateN(ctx context.Context, prompt string, n int, aspectRatio string) ([]*Image, error) {
	log.Info("generating image", "prompt", utils.LimitStr(prompt, 100), "count", n)
	resp, err := g.models.GenerateImages(ctx, g.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(max(n, 1)),
		AspectRatio:    cmp.Or(aspectRatio, g.AspectRatio),
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	var out []*Image
	for _, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			if gi != nil && gi.RAIFilteredReason != "" {
				log.Warn("image filtered", "reason", gi.RAIFilteredReason)
			}
			continue
		}
		out = append(out, &Image{Bytes: gi.Image.ImageBytes, MIMEType: gi.Image.MIMEType})
	}
	if len(out) == 0 {
		return nil, ErrNoImage
	}
	return out, nil
}

// Edit asks the image-output model to redraw src so it matches prompt.
func (g *GenAI) Edit(ctx context.Context, src *Image, prompt string) (*Image, error) {
	if src == nil {
		return nil, errors.New("edit: missing source image")
	}
	prompt = editPrefix + prompt
	log.Info("editing image", "prompt", utils.LimitStr(prompt, 100))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(src.Bytes, src.mimeType()),
		}, genai.RoleUser),
	}
	resp, err := g.models.GenerateContent(ctx, g.EditModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}

	var out *Image
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.Text != "":
			log.Info("image model says", "text", utils.LimitStr(part.Text, 200))
		case part.InlineData != nil && len(part.InlineData.Data) > 0:
			out = &Image{Bytes: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
		}
	}
	if out == nil {
		return nil, ErrNoImage
	}
	return out, nil
}

// Save writes the image as PNG to dir/name and returns the path.
// Non-PNG payloads are re-encoded.
func Save(img *Image, dir, name string) (string, error) {
	data := img.Bytes
	if img.mimeType() != "image/png" {
		decoded, _, err := image.Decode(bytes.NewReader(img.Bytes))
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, decoded); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		data = buf.Bytes()
	}
	path, err := utils.WriteFile(dir, name, data)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return path, nil
}

// Load reads an image saved with Save.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Image{Bytes: data, MIMEType: http.DetectContentType(data)}, nil
}

// EncodeWebP converts PNG or JPEG bytes into a high quality WebP.
func EncodeWebP(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		var err2 error
		img, _, err2 = image.Decode(bytes.NewReader(data))
		if err2 != nil {
			return nil, fmt.Errorf("failed to decode image (png: %v, generic: %v)", err, err2)
		}
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveWebP writes a WebP preview of the PNG at src next to it and returns its path.
func SaveWebP(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	out, err := EncodeWebP(data)
	if err != nil {
		return "", err
	}
	dst := src[:len(src)-len(filepath.Ext(src))] + ".webp"
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", dst, err)
	}
	return dst, nil
}
