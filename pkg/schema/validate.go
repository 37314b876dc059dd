package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports model output that does not match the declared schema.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	msg := "invalid script"
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ParseScript decodes a model response into a VideoScript and validates it.
func ParseScript(data []byte) (*VideoScript, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s VideoScript
	if err := dec.Decode(&s); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON", Err: err}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields every downstream stage depends on.
func (s *VideoScript) Validate() error {
	if s == nil {
		return &ValidationError{Reason: "empty script"}
	}
	if len(s.Clips) == 0 {
		return &ValidationError{Field: "clips", Reason: "no clips returned"}
	}
	if len(s.Characters) == 0 {
		return &ValidationError{Field: "characters", Reason: "no characters returned"}
	}
	for i, c := range s.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("characters[%d].name", i), Reason: "required"}
		}
	}
	seen := make(map[string]int, len(s.Clips))
	for i, c := range s.Clips {
		switch {
		case strings.TrimSpace(c.ID) == "":
			return &ValidationError{Field: fmt.Sprintf("clips[%d].id", i), Reason: "required"}
		case strings.TrimSpace(c.Subject.Description) == "":
			return &ValidationError{Field: fmt.Sprintf("clips[%d].subject.description", i), Reason: "required"}
		case strings.TrimSpace(c.Scene.Location) == "":
			return &ValidationError{Field: fmt.Sprintf("clips[%d].scene.location", i), Reason: "required"}
		case c.DurationSec <= 0:
			return &ValidationError{Field: fmt.Sprintf("clips[%d].duration_sec", i), Reason: "must be positive"}
		}
		if j, ok := seen[c.ID]; ok {
			return &ValidationError{Field: fmt.Sprintf("clips[%d].id", i), Reason: fmt.Sprintf("duplicates clips[%d]", j)}
		}
		seen[c.ID] = i
	}
	return nil
}

// PromptFor builds the single-scene document for clip n.
func (s *VideoScript) PromptFor(n int) ScenePrompt {
	return ScenePrompt{
		Characters: s.Characters,
		Clips:      []Clip{s.Clips[n]},
	}
}

// JSON serializes the scene prompt as sent to the image and video models.
func (p ScenePrompt) JSON() string {
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
