package event

import (
	"log/slog"
	"morse-lab/errors"
	"sync"
)

// TransmissionSentHandler counts authorized transmissions.
// It is triggered each time a room keys a message into its members' audio.
type TransmissionSentHandler struct {
	log     *slog.Logger
	mu      sync.Mutex
	counter *Counter
	frames  int
}

func NewTransmissionSentHandler(log *slog.Logger, counter *Counter) *TransmissionSentHandler {
	return &TransmissionSentHandler{log: log, counter: counter}
}

func (h *TransmissionSentHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case TransmissionSentType:
		payload, ok := event.Payload.(TransmissionSent)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(TransmissionSentType)
		h.frames += payload.Frames
		h.log.Debug("Transmission sent", "room", payload.Room, "callsign", payload.Callsign,
			"frames", payload.Frames, "total_frames", h.frames)
	}
}

// Frames returns the number of tone frames keyed so far.
func (h *TransmissionSentHandler) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
