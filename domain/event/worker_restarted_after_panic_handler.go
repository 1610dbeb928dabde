package event

import (
	"log/slog"
	"morse-lab/errors"
	"sync"
)

// WorkerRestartedAfterPanicHandler keeps track of supervised workers that
// panicked and were restarted, per worker name.
type WorkerRestartedAfterPanicHandler struct {
	log      *slog.Logger
	mu       sync.Mutex
	counter  *Counter
	restarts map[string]int
}

func NewWorkerRestartedAfterPanicHandler(log *slog.Logger, counter *Counter) *WorkerRestartedAfterPanicHandler {
	return &WorkerRestartedAfterPanicHandler{
		log:      log,
		counter:  counter,
		restarts: make(map[string]int),
	}
}

func (h *WorkerRestartedAfterPanicHandler) Handle(event Event) {
	if event.Type != RestartedAfterPanicType {
		return
	}
	payload, ok := event.Payload.(WorkerRestartedAfterPanic)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counter.Increment(RestartedAfterPanicType)
	h.restarts[payload.WorkerName]++
	h.log.Warn("Worker restarted after panic", "name", payload.WorkerName,
		"restarts", h.restarts[payload.WorkerName],
		"total", h.counter.Get(RestartedAfterPanicType))
}

func (h *WorkerRestartedAfterPanicHandler) Restarts(workerName string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restarts[workerName]
}
