package runtime

import (
	"context"
	"log/slog"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/runtime/workers"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRoom(name string, onClose func(*workers.RoomWorker)) *workers.RoomWorker {
	return workers.NewRoomWorker(slog.Default(), name, false, workers.RoomSettings{SampleRate: 8000},
		NewRegistry(), make(chan event.DomainEvent, 64), onClose)
}

func TestRoomRegistry_GetOrCreate(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	builds := 0
	create := func() *workers.RoomWorker {
		builds++
		return newTestRoom("alpha", rooms.Release)
	}

	first, created := rooms.GetOrCreate("alpha", create)
	req.True(created)
	second, created := rooms.GetOrCreate("alpha", create)
	req.False(created)

	req.Same(first, second)
	req.Equal(1, builds)
	got, ok := rooms.Get("alpha")
	req.True(ok)
	req.Same(first, got)
	_, ok = rooms.Get("bravo")
	req.False(ok)
}

func TestRoomRegistry_ClosedRoomIsReplaced(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()

	// Given a room whose worker already stopped, without releasing itself
	old, _ := rooms.GetOrCreate("alpha", func() *workers.RoomWorker { return newTestRoom("alpha", nil) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.ErrorIs(old.Run(ctx), context.Canceled)
	_, ok := rooms.Get("alpha")
	req.False(ok)

	// When the name is asked for again
	fresh, created := rooms.GetOrCreate("alpha", func() *workers.RoomWorker { return newTestRoom("alpha", nil) })

	// Then a new room takes it
	req.True(created)
	req.NotSame(old, fresh)
	req.Len(rooms.All(), 1)
}

func TestRoomRegistry_ReleaseKeepsNewerRoom(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	old := newTestRoom("alpha", nil)
	fresh, _ := rooms.GetOrCreate("alpha", func() *workers.RoomWorker { return newTestRoom("alpha", nil) })

	rooms.Release(old)
	got, ok := rooms.Get("alpha")
	req.True(ok)
	req.Same(fresh, got)

	rooms.Release(fresh)
	req.Empty(rooms.All())
}

func TestRoomRegistry_OccupancyAndQueues(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRegistry()
	alpha, _ := rooms.GetOrCreate("alpha", func() *workers.RoomWorker { return newTestRoom("alpha", rooms.Release) })
	rooms.GetOrCreate("bravo", func() *workers.RoomWorker { return newTestRoom("bravo", rooms.Release) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = alpha.Run(ctx) }()
	joinCtx, joinCancel := context.WithTimeout(ctx, time.Second)
	defer joinCancel()
	_, err := alpha.Join(joinCtx, contract.JoinRequest{
		Room:     "alpha",
		Identity: domain.Identity{RealmID: "42", UserID: "42"},
	})
	req.NoError(err)

	roomCount, members := rooms.Occupancy()
	req.Equal(2, roomCount)
	req.Equal(1, members)

	queues := rooms.Queues()
	req.Len(queues, 2)
	req.Equal("room:alpha", queues[0].Name)
	req.Equal("room:bravo", queues[1].Name)
}
