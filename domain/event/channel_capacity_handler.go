package event

import (
	"log/slog"
	"morse-lab/errors"
)

// ChannelCapacityHandler watches the fill level of the internal channels.
// A room command queue or the fanout channel running out of room means
// commands or notifications are about to be dropped.
type ChannelCapacityHandler struct {
	log                  *slog.Logger
	lowCapacityThreshold int
	counter              *Counter
}

func NewChannelCapacityHandler(log *slog.Logger, lowCapacityThreshold int, counter *Counter) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, lowCapacityThreshold: lowCapacityThreshold, counter: counter}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	if event.Type != ChannelCapacityType {
		return
	}
	payload, ok := event.Payload.(ChannelCapacity)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error())
		return
	}
	h.log.Debug("Channel usage", "channel", payload.ChannelName,
		"length", payload.Length, "capacity", payload.Capacity)
	// unbuffered
	if payload.Capacity <= 0 {
		return
	}
	if left := payload.Capacity - payload.Length; left <= h.lowCapacityThreshold {
		h.counter.Increment(ChannelCapacityType)
		h.log.Warn("Channel is running out of capacity", "channel", payload.ChannelName, "left", left)
	}
}
