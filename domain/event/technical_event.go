package event

import (
	"sync"
	"time"
)

type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	HealthSampleType        Type = "HEALTH_SAMPLE"
	TransmissionSentType    Type = "TRANSMISSION_SENT"
)

// Event is a technical event, consumed by telemetry handlers only.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type HealthSample struct {
	PID     int32
	Cpu     float64
	Ram     uint64
	Rooms   int
	Members int
}

type TransmissionSent struct {
	Room     string
	Callsign string
	Frames   int
}

// Counter counts technical events per type.
type Counter struct {
	mu     sync.Mutex
	counts map[Type]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[Type]int)}
}

func (c *Counter) Increment(t Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[t]++
}

func (c *Counter) Get(t Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[t]
}
