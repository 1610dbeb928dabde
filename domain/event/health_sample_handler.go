package event

import (
	"fmt"
	"log/slog"
	"morse-lab/errors"
)

// HealthSampleHandler logs process health along with room occupancy.
type HealthSampleHandler struct {
	log *slog.Logger
}

func NewHealthSampleHandler(log *slog.Logger) *HealthSampleHandler {
	return &HealthSampleHandler{log: log}
}

func (h HealthSampleHandler) Handle(event Event) {
	switch event.Type {
	case HealthSampleType:
		payload, ok := event.Payload.(HealthSample)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf("[HEALTH] PID %d | CPU %.2f%% | RSS %d KiB | ROOMS %d | MEMBERS %d",
			payload.PID, payload.Cpu, payload.Ram/1024, payload.Rooms, payload.Members))
	}
}
