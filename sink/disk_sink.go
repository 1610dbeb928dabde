package sink

import (
	"context"
	"fmt"
	"log/slog"
	"morse-lab/domain/event"
	"morse-lab/repositories"
)

// DiskSink archives every transmission.
type DiskSink struct {
	repository repositories.ITransmissionRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.ITransmissionRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.Transmitted:
		return d.repository.StoreTransmission(evt)
	default:
		return nil
	}
}

// LogSink logs every domain event at debug level.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Consume(ctx context.Context, e event.DomainEvent) error {
	l.log.DebugContext(ctx, "Domain event", "room", e.RoomName(), "type", fmt.Sprintf("%T", e))
	return nil
}
