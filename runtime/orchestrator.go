// Package runtime wires rooms, sinks and workers together.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"morse-lab/runtime/workers"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// joinAttempts bounds the retries of a join racing a room that is closing.
const joinAttempts = 3

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Settings tune the orchestrator and every room it creates.
type Settings struct {
	Room                 workers.RoomSettings
	BufferSize           int
	SinkTimeout          time.Duration
	MetricInterval       time.Duration
	LowCapacityThreshold int
}

type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	supervisor      *workers.Supervisor
	registry        contract.IRegistry
	rooms           *RoomRegistry
	permanentSinks  []contract.EventSink
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.Event
	settings        Settings
	counter         *event.Counter
	transmissions   *event.TransmissionSentHandler
	restarts        *event.WorkerRestartedAfterPanicHandler
	runCtx          context.Context
	cancel          context.CancelFunc
	ready           chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	registry contract.IRegistry, settings Settings) *Orchestrator {
	if settings.BufferSize <= 0 {
		settings.BufferSize = 1
	}
	if settings.Room.BufferSize <= 0 {
		settings.Room.BufferSize = settings.BufferSize
	}
	telemetryEvents := make(chan event.Event, settings.BufferSize)
	counter := event.NewCounter()
	return &Orchestrator{
		log:             log,
		supervisor:      supervisor.WithTelemetry(telemetryEvents),
		registry:        registry,
		rooms:           NewRoomRegistry(),
		domainEvents:    make(chan event.DomainEvent, settings.BufferSize),
		telemetryEvents: telemetryEvents,
		settings:        settings,
		counter:         counter,
		transmissions:   event.NewTransmissionSentHandler(log, counter),
		restarts:        event.NewWorkerRestartedAfterPanicHandler(log, counter),
		ready:           make(chan struct{}),
	}
}

// Add registers sinks receiving every domain event. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Ready is closed once Start has set up the pipeline and rooms can be joined.
func (o *Orchestrator) Ready() <-chan struct{} {
	return o.ready
}

// Start prepares the pipeline workers, then runs the supervisor until ctx is
// cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pipeline := o.preparePipeline()

	// 2. Critical section
	o.mu.Lock()
	if o.runCtx != nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: already started", errors.ErrInvalidConfig)
	}
	o.runCtx, o.cancel = runCtx, cancel
	o.supervisor.Add(pipeline...)
	close(o.ready)
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers", "workers", len(pipeline))
	o.supervisor.Run(runCtx)
	return nil
}

// preparePipeline builds the fanout, the telemetry chain and the samplers.
func (o *Orchestrator) preparePipeline() []contract.Worker {
	o.mu.Lock()
	sinks := append([]contract.EventSink(nil), o.permanentSinks...)
	o.mu.Unlock()

	handlers := []event.Handler{
		event.NewChannelCapacityHandler(o.log, o.settings.LowCapacityThreshold, o.counter),
		o.restarts,
		event.NewHealthSampleHandler(o.log),
		o.transmissions,
	}
	pipeline := []contract.Worker{
		workers.NewEventFanout(o.log, sinks, o.registry, o.domainEvents, o.telemetryEvents, o.settings.SinkTimeout),
		workers.NewTelemetryWorker(o.log, o.telemetryEvents, handlers),
	}
	if o.settings.MetricInterval > 0 {
		channels := []workers.NamedChannel{
			{Name: "domain_events", Channel: o.domainEvents},
			{Name: "telemetry_events", Channel: o.telemetryEvents},
		}
		pipeline = append(pipeline,
			workers.NewHealthMonitoringWorker(o.log, o.telemetryEvents, o.settings.MetricInterval, o.rooms.Occupancy),
			workers.NewChannelCapacityWorker(o.log, channels, o.rooms.Queues, o.telemetryEvents, o.settings.MetricInterval),
		)
	}
	return pipeline
}

// Join puts req.Identity in the room named req.Room, creating the room on
// first use. A join landing on a room that is shutting down is retried on a
// fresh one.
func (o *Orchestrator) Join(ctx context.Context, req contract.JoinRequest) (contract.JoinResult, error) {
	runCtx, err := o.context()
	if err != nil {
		return contract.JoinResult{}, err
	}
	req.Room = strings.TrimSpace(req.Room)
	if req.Room == "" {
		return contract.JoinResult{}, fmt.Errorf("%w: room name is required", errors.ErrInvalidPayload)
	}
	if req.Identity, err = domain.NewIdentity(req.Identity.RealmID, req.Identity.UserID); err != nil {
		return contract.JoinResult{}, err
	}

	for attempt := 1; ; attempt++ {
		room, _ := o.rooms.GetOrCreate(req.Room, func() *workers.RoomWorker {
			return o.newRoom(runCtx, req.Room, req.Net)
		})
		res, err := room.Join(ctx, req)
		switch {
		case err == nil:
			return res, nil
		case stderrors.Is(err, errors.ErrRoomClosed) && attempt < joinAttempts:
			o.log.Debug("Room closed under a join, retrying", "room", req.Room, "attempt", attempt)
			continue
		case ctx.Err() != nil:
			// The join may have been queued already.
			o.leaveQuietly(room, req)
		}
		return contract.JoinResult{}, err
	}
}

func (o *Orchestrator) newRoom(ctx context.Context, name string, net bool) *workers.RoomWorker {
	w := workers.NewRoomWorker(o.log, name, net, o.settings.Room, o.registry, o.domainEvents, o.rooms.Release)
	o.supervisor.Start(ctx, w)
	o.log.Info("Room created", "room", name, "net", net)
	return w
}

func (o *Orchestrator) leaveQuietly(room *workers.RoomWorker, req contract.JoinRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		leave := domain.LeaveCommand{Room: req.Room, By: req.Identity}
		if err := room.Submit(ctx, leave); err != nil {
			o.log.Debug("Leave after cancelled join not delivered", "room", req.Room, "error", err)
		}
	}()
}

// Dispatch queues cmd on its room. It blocks while the room queue is full.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd domain.Command) error {
	if _, err := o.context(); err != nil {
		return err
	}
	room, ok := o.rooms.Get(cmd.RoomName())
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownRoom, cmd.RoomName())
	}
	return room.Submit(ctx, cmd)
}

// Rooms lists the live rooms sorted by name.
func (o *Orchestrator) Rooms() []contract.RoomSummary {
	return lo.Map(o.rooms.All(), func(w *workers.RoomWorker, _ int) contract.RoomSummary {
		return w.Summary()
	})
}

// Stats is a snapshot of the technical counters.
type Stats struct {
	Transmissions int
	Frames        int
	Restarts      int
	LowCapacity   int
	Rooms         int
	Members       int
}

func (o *Orchestrator) Stats() Stats {
	rooms, members := o.rooms.Occupancy()
	return Stats{
		Transmissions: o.counter.Get(event.TransmissionSentType),
		Frames:        o.transmissions.Frames(),
		Restarts:      o.counter.Get(event.RestartedAfterPanicType),
		LowCapacity:   o.counter.Get(event.ChannelCapacityType),
		Rooms:         rooms,
		Members:       members,
	}
}

// Stop cancels every supervised worker, rooms included. Start returns once
// they are all done.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.supervisor.Stop()
}

func (o *Orchestrator) context() (context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runCtx == nil {
		return nil, errors.ErrNotStarted
	}
	if err := o.runCtx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNotStarted, err)
	}
	return o.runCtx, nil
}
