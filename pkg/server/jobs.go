package server

import (
	"slices"
	"sync"
	"time"

	"vlogger/pkg/pipeline"
	"vlogger/pkg/script"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the externally visible state of a queued vlog.
type Job struct {
	ID      string           `json:"id"`
	Brief   script.Brief     `json:"brief"`
	Status  Status           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Events  []pipeline.Event `json:"events,omitempty"`
	Created time.Time        `json:"created"`
	Updated time.Time        `json:"updated"`
}

func (j Job) Finished() bool { return j.Status == StatusDone || j.Status == StatusFailed }

// tracker guards a Job and fans its events out to subscribers.
type tracker struct {
	mu   sync.Mutex
	job  Job
	subs map[chan pipeline.Event]struct{}
}

func newTracker(j Job) *tracker {
	return &tracker{job: j, subs: make(map[chan pipeline.Event]struct{})}
}

func (t *tracker) View() Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := t.job
	j.Events = slices.Clone(j.Events)
	return j
}

func (t *tracker) setStatus(s Status) {
	t.mu.Lock()
	t.job.Status = s
	t.job.Updated = time.Now()
	t.mu.Unlock()
}

// publish records e. Subscribers that are not keeping up miss it.
func (t *tracker) publish(e pipeline.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.Events = append(t.job.Events, e)
	t.job.Updated = time.Now()
	for ch := range t.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (t *tracker) finish(res *pipeline.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.Result = res
	t.job.Status = StatusDone
	if err != nil {
		t.job.Status = StatusFailed
		t.job.Error = err.Error()
	}
	t.job.Updated = time.Now()
	for ch := range t.subs {
		close(ch)
	}
	t.subs = nil
}

// subscribe returns the events so far and a channel of later ones, closed
// once the job finishes.
func (t *tracker) subscribe() ([]pipeline.Event, <-chan pipeline.Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	past := slices.Clone(t.job.Events)
	ch := make(chan pipeline.Event, 64)
	if t.job.Finished() {
		close(ch)
		return past, ch, func() {}
	}
	t.subs[ch] = struct{}{}
	return past, ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}
