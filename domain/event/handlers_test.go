package event

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelCapacityHandler_CountsLowCapacity(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	handler := NewChannelCapacityHandler(slog.Default(), 2, counter)

	// Given a channel with plenty of room, then one nearly full
	handler.Handle(Event{Type: ChannelCapacityType, CreatedAt: time.Now(),
		Payload: ChannelCapacity{ChannelName: "fanout", Capacity: 10, Length: 1}})
	handler.Handle(Event{Type: ChannelCapacityType, CreatedAt: time.Now(),
		Payload: ChannelCapacity{ChannelName: "fanout", Capacity: 10, Length: 9}})
	// And an unbuffered channel which is never reported
	handler.Handle(Event{Type: ChannelCapacityType, CreatedAt: time.Now(),
		Payload: ChannelCapacity{ChannelName: "sync", Capacity: 0, Length: 0}})

	// Then only the nearly full channel is counted
	req.Equal(1, counter.Get(ChannelCapacityType))
}

func TestHandlers_IgnoreOtherTypesAndBadPayloads(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	restarted := NewWorkerRestartedAfterPanicHandler(slog.Default(), counter)
	sent := NewTransmissionSentHandler(slog.Default(), counter)

	restarted.Handle(Event{Type: TransmissionSentType, Payload: TransmissionSent{Frames: 3}})
	restarted.Handle(Event{Type: RestartedAfterPanicType, Payload: "not a payload"})
	sent.Handle(Event{Type: TransmissionSentType, Payload: ChannelCapacity{}})

	req.Zero(counter.Get(RestartedAfterPanicType))
	req.Zero(counter.Get(TransmissionSentType))
	req.Zero(sent.Frames())
}

func TestWorkerRestartedAfterPanicHandler_CountsPerWorker(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	handler := NewWorkerRestartedAfterPanicHandler(slog.Default(), counter)

	for _, name := range []string{"RoomWorker", "RoomWorker", "EventFanout"} {
		handler.Handle(Event{Type: RestartedAfterPanicType,
			Payload: WorkerRestartedAfterPanic{WorkerName: name}})
	}

	req.Equal(3, counter.Get(RestartedAfterPanicType))
	req.Equal(2, handler.Restarts("RoomWorker"))
	req.Equal(1, handler.Restarts("EventFanout"))
}

func TestTransmissionSentHandler_SumsFrames(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	handler := NewTransmissionSentHandler(slog.Default(), counter)

	handler.Handle(Event{Type: TransmissionSentType, Payload: TransmissionSent{Room: "alpha", Callsign: "AE2GCY", Frames: 4}})
	handler.Handle(Event{Type: TransmissionSentType, Payload: TransmissionSent{Room: "alpha", Callsign: "AE2GCY", Frames: 108}})

	req.Equal(2, counter.Get(TransmissionSentType))
	req.Equal(112, handler.Frames())
}
