package workers

import (
	"context"
	"log/slog"
	"morse-lab/domain/event"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// given channels, plus those returned by dynamic (the live room queues).
// Reading len and cap never blocks; a lost sample is fine since the next
// tick takes another one.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	dynamic        func() []NamedChannel
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, dynamic func() []NamedChannel,
	telemetryChan chan event.Event, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		dynamic:        dynamic,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w ChannelCapacityWorker) sample(ctx context.Context) {
	channels := w.channels
	if w.dynamic != nil {
		channels = append(channels[:len(channels):len(channels)], w.dynamic()...)
	}
	for _, nc := range channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case w.telemetryChan <- toCapacityEvent(nc.Name, v.Cap(), v.Len()):
		default:
			w.log.Debug("Observability telemetry event lost")
		}
	}
}

func toCapacityEvent(name string, capacity, length int) event.Event {
	return event.Event{
		Type:      event.ChannelCapacityType,
		CreatedAt: time.Now().UTC(),
		Payload: event.ChannelCapacity{
			ChannelName: name,
			Capacity:    capacity,
			Length:      length,
		},
	}
}
