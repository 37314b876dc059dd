package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Assembler joins clips, in order, into one file.
type Assembler interface {
	Concat(ctx context.Context, paths []string, out string) (string, error)
}

// FFmpeg concatenates clips with the ffmpeg concat demuxer and re-encodes
// them with fixed codecs.
type FFmpeg struct {
	VideoCodec string
	AudioCodec string

	// Probe checks that a clip is readable. Defaults to ffprobe.
	Probe func(path string) error
	// Run executes the compiled ffmpeg command.
	Run func(s *ffmpeg.Stream) error
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{VideoCodec: "libx264", AudioCodec: "aac"}
}

func (f *FFmpeg) Concat(ctx context.Context, paths []string, out string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("concat: no clips")
	}
	probe := f.Probe
	if probe == nil {
		probe = func(p string) error {
			_, err := ffmpeg.Probe(p)
			return err
		}
	}
	run := f.Run
	if run == nil {
		run = func(s *ffmpeg.Stream) error { return s.Run() }
	}

	var list strings.Builder
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("concat: clip %d: %w", i, err)
		}
		if info.Size() == 0 {
			return "", fmt.Errorf("concat: clip %d (%s) is empty", i, p)
		}
		if err := probe(p); err != nil {
			return "", fmt.Errorf("concat: clip %d (%s) is unreadable: %w", i, p, err)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	listPath := strings.TrimSuffix(out, filepath.Ext(out)) + "_concat.txt"
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", fmt.Errorf("concat: write list: %w", err)
	}
	defer os.Remove(listPath)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	stream := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(out, ffmpeg.KwArgs{"c:v": f.VideoCodec, "c:a": f.AudioCodec}).
		OverWriteOutput()

	log.Info("merging videos", "clips", len(paths), "out", out)
	log.Debug("ffmpeg", "args", stream.GetArgs())
	if err := run(stream); err != nil {
		return "", fmt.Errorf("concat: ffmpeg: %w", err)
	}
	return out, nil
}
