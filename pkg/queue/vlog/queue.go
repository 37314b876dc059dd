// Package vlog runs queued vlog jobs one at a time.
package vlog

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"vlogger/pkg/pipeline"
	"vlogger/pkg/script"
	"vlogger/pkg/utils"
)

var (
	ErrFull    = errors.New("queue is full")
	ErrStopped = errors.New("queue is stopped")
)

// Runner executes one job.
type Runner func(ctx context.Context, id string, b script.Brief) (*pipeline.Result, error)

type Queue struct {
	run   Runner
	items chan *Item

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

type Item struct {
	ID       string
	Brief    script.Brief
	Response chan *pipeline.Result
	Error    chan error
}

func New(run Runner, size int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		run:    run,
		items:  make(chan *Item, max(size, 1)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (q *Queue) Start() {
	q.wg.Add(1)
	go q.processLoop()
}

// Stop cancels the running job and waits for the worker to exit.
// Jobs still queued receive ErrStopped.
func (q *Queue) Stop() {
	q.once.Do(func() {
		q.cancel()
		q.wg.Wait()
		for {
			select {
			case item := <-q.items:
				item.Error <- ErrStopped
				close(item.Response)
			default:
				return
			}
		}
	})
}

func (q *Queue) Add(id string, b script.Brief) (chan *pipeline.Result, chan error, error) {
	if q.ctx.Err() != nil {
		return nil, nil, ErrStopped
	}
	respCh := make(chan *pipeline.Result, 1)
	errCh := make(chan error, 1)

	select {
	case q.items <- &Item{
		ID:       id,
		Brief:    b,
		Response: respCh,
		Error:    errCh,
	}:
		return respCh, errCh, nil
	default:
		return nil, nil, ErrFull
	}
}

func (q *Queue) processLoop() {
	defer q.wg.Done()
	log.Info("vlog queue started")
	for {
		select {
		case <-q.ctx.Done():
			log.Info("vlog queue stopped")
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	log.Info("processing vlog", "id", item.ID, "idea", utils.LimitStr(item.Brief.Idea, 50))

	res, err := q.run(q.ctx, item.ID, item.Brief)
	if err != nil {
		log.Error("vlog failed", "id", item.ID, "error", err)
		item.Error <- err
		close(item.Response)
		return
	}

	item.Response <- res
	close(item.Error)
}
