package pipeline

type Stage string

const (
	StageScript   Stage = "script"
	StageImage    Stage = "image"
	StageEdit     Stage = "edit"
	StageVideo    Stage = "video"
	StageAssemble Stage = "assemble"
	StageDone     Stage = "done"
	StageRetry    Stage = "retry"
	StageError    Stage = "error"
)

// Event reports pipeline progress. Scene is zero based.
type Event struct {
	Stage   Stage  `json:"stage"`
	Scene   int    `json:"scene"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

type Observer func(Event)
