//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logs and restart telemetry.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	if named, ok := w.(interface{ GetName() WorkerName }); ok && named.GetName() != "" {
		return string(named.GetName())
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the domain events of the rooms it is subscribed to.
// Consume must honour ctx: the fanout gives up on slow sinks.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the directory of participant sinks, one per participant and
// room instance. It is keyed by instance ID, not name: a room opened again
// under an old name starts with no sessions.
type IRegistry interface {
	GetSinksForRoom(roomID uuid.UUID) []EventSink
	GetSink(roomID uuid.UUID, participantKey string) (EventSink, bool)
	Subscribe(participantKey string, roomID uuid.UUID, sink EventSink)
	Unsubscribe(participantKey string, roomID uuid.UUID)
}

// AudioSource is what a transport pulls PCM frames from. ReadFrame never
// blocks and always returns FrameSize bytes.
type AudioSource interface {
	ReadFrame() []byte
	FrameSize() int
	SampleRate() int
}

// JoinRequest asks for id to join (or create) a room. Sink receives the
// room's notifications for as long as the participant stays.
type JoinRequest struct {
	Room      string
	Net       bool
	Identity  domain.Identity
	AccessKey string
	Confirm   string
	Sink      EventSink
}

type JoinResult struct {
	Room     string
	RoomID   uuid.UUID
	Net      bool
	Callsign string
	Created  bool
	Audio    AudioSource
}

// RoomSummary is a read-only snapshot of a live room.
type RoomSummary struct {
	Name     string   `json:"name"`
	Net      bool     `json:"net"`
	Locked   bool     `json:"locked"`
	Host     string   `json:"host,omitempty"`
	Speaking string   `json:"speaking,omitempty"`
	Members  []string `json:"members"`
}

type IOrchestrator interface {
	Join(ctx context.Context, req JoinRequest) (JoinResult, error)
	Dispatch(ctx context.Context, cmd domain.Command) error
	Rooms() []RoomSummary
	Start(ctx context.Context) error
	Stop()
}

// IModerator masks banned words in typed text and reports the words found.
type IModerator interface {
	Censor(text string) (string, []string)
}

// TranscriptReader serves the recent transmissions of a room.
type TranscriptReader interface {
	Transmissions(room string) []event.Transmitted
}
