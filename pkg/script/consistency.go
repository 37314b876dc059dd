package script

import (
	"os"

	"github.com/charmbracelet/log"

	"vlogger/pkg/diff"
	"vlogger/pkg/schema"
)

// DefaultDriftThreshold flags clips whose appearance or location shares
// less than about two thirds of its words with the first clip.
const DefaultDriftThreshold = 0.35

// CheckConsistency logs clips that drift from the first clip and returns them.
// It never rejects a script.
func CheckConsistency(s *schema.VideoScript, threshold float64) []diff.ClipDiff {
	var drifted []diff.ClipDiff
	for _, c := range diff.Clips(s.Clips) {
		d := c.MaxDrift()
		if d <= threshold {
			continue
		}
		drifted = append(drifted, c)
		for _, f := range c.FieldDiffs {
			if f.Str.Drift() <= threshold {
				continue
			}
			log.Warn("scene drifts from first clip", "clip", c.ID, "field", f.Path, "drift", f.Str.Drift(), "first", f.Str.Old, "this", f.Str.New)
		}
	}
	if len(drifted) > 0 && log.GetLevel() <= log.DebugLevel {
		diff.Print(os.Stderr, drifted)
	}
	return drifted
}
