package script

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"vlogger/pkg/schema"
	"vlogger/pkg/utils"
)

// Markdown renders one "## Scene N" section per clip.
func Markdown(s *schema.VideoScript) string {
	var b strings.Builder
	for _, c := range s.Characters {
		fmt.Fprintf(&b, "# %s\n\n", c.Name)
		writeField(&b, "Build", c.Build)
		writeField(&b, "Hair", c.Hair)
		writeField(&b, "Eyes", c.Eyes)
		writeField(&b, "Outfit", c.DefaultOutfit)
		writeField(&b, "Demeanour", c.Demeanour)
		b.WriteString("\n")
	}
	for n, c := range s.Clips {
		fmt.Fprintf(&b, "## Scene %d\n\n", n+1)
		writeField(&b, "Clip", c.ID)
		writeField(&b, "Subject", c.Subject.Description)
		writeField(&b, "Location", c.Scene.Location)
		writeField(&b, "Action", c.VisualDetails.Action)
		writeField(&b, "Shot", c.Shot.Composition)
		if c.Dialogue.Line != "" {
			fmt.Fprintf(&b, "> **%s:** %s\n\n", c.Dialogue.Character, c.Dialogue.Line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", name, value)
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts the storyboard markdown into a standalone page.
func HTML(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>Storyboard</title></head><body>\n")
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, err
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

// WriteStoryboard saves scenes.md and scenes.html under dir.
func WriteStoryboard(s *schema.VideoScript, dir string) error {
	markdown := Markdown(s)
	if _, err := utils.WriteFile(dir, MarkdownFile, []byte(markdown)); err != nil {
		return fmt.Errorf("save storyboard: %w", err)
	}
	page, err := HTML(markdown)
	if err != nil {
		return fmt.Errorf("render storyboard: %w", err)
	}
	if _, err := utils.WriteFile(dir, StoryboardFile, page); err != nil {
		return fmt.Errorf("save storyboard: %w", err)
	}
	return nil
}
