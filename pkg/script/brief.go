package script

import (
	"cmp"
	"fmt"
	"strings"
)

const (
	DefaultTraits      = "sarcastic, dramatic, emotional, and lovable"
	DefaultVideoType   = "vlog"
	DefaultStyle       = "realistic, 4k, cinematic"
	DefaultCamera      = "front, close-up, medium shot, long shot"
	DefaultAspectRatio = "16:9"
	DefaultScenes      = 4

	// SceneSeconds is the target length of a single clip.
	SceneSeconds = 8
)

// Brief is the input of a vlog run: an idea plus optional creative direction.
type Brief struct {
	Idea        string `json:"idea"`
	Scenes      int    `json:"scenes,omitempty"`
	Character   string `json:"character,omitempty"`
	Traits      string `json:"traits,omitempty"`
	VideoType   string `json:"video_type,omitempty"`
	Style       string `json:"style,omitempty"`
	Camera      string `json:"camera,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// WithDefaults fills every unset field.
func (b Brief) WithDefaults() Brief {
	b.Idea = strings.TrimSpace(b.Idea)
	if b.Scenes <= 0 {
		b.Scenes = DefaultScenes
	}
	b.Traits = cmp.Or(b.Traits, DefaultTraits)
	b.VideoType = cmp.Or(b.VideoType, DefaultVideoType)
	b.Style = cmp.Or(b.Style, DefaultStyle)
	b.Camera = cmp.Or(b.Camera, DefaultCamera)
	b.AspectRatio = cmp.Or(b.AspectRatio, DefaultAspectRatio)
	return b
}

// Prompt renders the user message sent to the script model.
func (b Brief) Prompt() string {
	var sb strings.Builder
	sb.WriteString(b.Idea)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "The %s should consist of at most %d scenes, each lasting %d seconds.\n", b.VideoType, b.Scenes, SceneSeconds)
	if b.Character != "" {
		fmt.Fprintf(&sb, "Main character: %s\n", b.Character)
	}
	fmt.Fprintf(&sb, "Character personality: %s\n", b.Traits)
	fmt.Fprintf(&sb, "Camera: %s\n", b.Camera)
	fmt.Fprintf(&sb, "Style: %s\n", b.Style)
	fmt.Fprintf(&sb, "Aspect ratio: %s\n", b.AspectRatio)
	return sb.String()
}
