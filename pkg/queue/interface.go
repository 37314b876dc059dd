package queue

import (
	"vlogger/pkg/pipeline"
	"vlogger/pkg/script"
)

type Queue interface {
	Start()
	Stop()
	Add(id string, b script.Brief) (chan *pipeline.Result, chan error, error)
}
