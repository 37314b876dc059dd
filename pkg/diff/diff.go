// Package diff computes word-level differences between scene descriptors.
package diff

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/aryann/difflib"

	"vlogger/pkg/schema"
)

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

type WordDelta struct {
	Op   Op
	Text string
}

type StringDiff struct {
	Old    string
	New    string
	Deltas []WordDelta
}

// Drift is the fraction of words in Old and New that are not shared,
// from 0 (identical) to 1 (nothing in common).
func (sd StringDiff) Drift() float64 {
	var common, total int
	for _, d := range sd.Deltas {
		n := len(words(d.Text))
		total += n
		if d.Op == Equal {
			common += 2 * n
			total += n
		}
	}
	if total == 0 {
		return 0
	}
	return 1 - float64(common)/float64(total)
}

type FieldDiff struct {
	Path string
	Str  StringDiff
}

// ClipDiff compares one clip against the reference clip.
type ClipDiff struct {
	Index      int
	ID         string
	FieldDiffs []FieldDiff
}

// MaxDrift is the largest field drift of the clip.
func (c ClipDiff) MaxDrift() float64 {
	var m float64
	for _, f := range c.FieldDiffs {
		m = max(m, f.Str.Drift())
	}
	return m
}

// Clips compares the appearance and location fields of every clip against clip 0.
func Clips(clips []schema.Clip) []ClipDiff {
	if len(clips) < 2 {
		return nil
	}
	ref := clips[0]
	out := make([]ClipDiff, 0, len(clips)-1)
	for i, c := range clips[1:] {
		var fd []FieldDiff
		add := func(path, a, b string) {
			if a == b {
				return
			}
			fd = append(fd, FieldDiff{Path: path, Str: Strings(a, b)})
		}
		add("subject.description", ref.Subject.Description, c.Subject.Description)
		add("subject.wardrobe", ref.Subject.Wardrobe, c.Subject.Wardrobe)
		add("scene.location", ref.Scene.Location, c.Scene.Location)
		out = append(out, ClipDiff{Index: i + 1, ID: c.ID, FieldDiffs: fd})
	}
	return out
}

// Strings returns the word diff from a to b.
func Strings(a, b string) StringDiff {
	if a == b {
		return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Equal, Text: a}}}
	}
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	deltas := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
		}
	}
	return StringDiff{Old: a, New: b, Deltas: coalesceSpaces(deltas)}
}

// TokenizeWords splits s into runs of spaces, word characters and punctuation.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsNumber(r))
	})
}

func coalesceSpaces(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	flush := func(op Op, buf *strings.Builder) {
		if buf.Len() == 0 {
			return
		}
		out = append(out, WordDelta{Op: op, Text: buf.String()})
		buf.Reset()
	}
	var curOp Op = -1
	var buf strings.Builder
	for _, d := range in {
		if strings.TrimSpace(d.Text) == "" && d.Op == Equal {
			buf.WriteString(d.Text)
			continue
		}
		if curOp != d.Op && curOp != -1 {
			flush(curOp, &buf)
		}
		curOp = d.Op
		buf.WriteString(d.Text)
	}
	flush(curOp, &buf)
	return out
}

const (
	ansiReset = "\x1b[0m"
	fgGreen   = "\x1b[32m"
	fgRed     = "\x1b[31m"
	fgYellow  = "\x1b[33m"
	fgCyan    = "\x1b[36m"
	uline     = "\x1b[4m"
	strike    = "\x1b[9m"
)

func renderStringDiff(sd StringDiff) string {
	var b strings.Builder
	for _, d := range sd.Deltas {
		switch d.Op {
		case Equal:
			b.WriteString(d.Text)
		case Insert:
			fmt.Fprintf(&b, "%s%s%s%s", fgGreen, uline, d.Text, ansiReset)
		case Delete:
			fmt.Fprintf(&b, "%s%s%s%s", fgRed, strike, d.Text, ansiReset)
		}
	}
	return b.String()
}

// Print writes a coloured report of the clips that differ from clip 0.
func Print(w io.Writer, diffs []ClipDiff) {
	fmt.Fprintln(w, fgCyan+"Scene drift"+ansiReset)
	for _, c := range diffs {
		if len(c.FieldDiffs) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s[~]%s clip %d (%s) drift %.2f\n", fgYellow, ansiReset, c.Index, c.ID, c.MaxDrift())
		for _, f := range c.FieldDiffs {
			fmt.Fprintf(w, "    %s: %s\n", f.Path, renderStringDiff(f.Str))
		}
	}
}
