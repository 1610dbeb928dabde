package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"morse-lab/auth"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"morse-lab/mocks"
	"morse-lab/runtime"
	"morse-lab/runtime/workers"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var alice = domain.Identity{RealmID: "123456789012345678", UserID: "987654321098765432"} // AE2GCY

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func startRuntime(t *testing.T) *runtime.Orchestrator {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	o := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), runtime.NewRegistry(),
		runtime.Settings{
			Room:        workers.RoomSettings{SampleRate: 8000, DefaultWPM: 15, MaxWPM: 60, MaxContentLength: 64, WPMFloor: 12},
			BufferSize:  256,
			SinkTimeout: 100 * time.Millisecond,
		})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Start(ctx) }()
	<-o.Ready()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return o
}

// readUntil reads messages until a JSON notification of typ arrives, counting
// binary audio frames on the way.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) (Outbound, int) {
	t.Helper()
	audioFrames := 0
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.BinaryMessage {
			audioFrames++
			continue
		}
		var out Outbound
		require.NoError(t, json.Unmarshal(data, &out))
		if out.Type == typ {
			return out, audioFrames
		}
	}
}

func TestHandleWS_Session(t *testing.T) {
	req := require.New(t)
	o := startRuntime(t)
	server := httptest.NewServer(NewRouter(Routes{
		Log:          slog.Default(),
		WS:           NewServer(slog.Default(), o, 64, time.Second),
		Orchestrator: o,
	}))
	defer server.Close()

	// Given A connected to a fresh room
	conn, resp, err := websocket.DefaultDialer.Dial(
		wsURL(server, "/ws/rooms/alpha?realm="+alice.RealmID+"&user="+alice.UserID), nil)
	req.NoError(err)
	req.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
	defer conn.Close()

	state, _ := readUntil(t, conn, TypeState)
	req.Equal("alpha", state.Room)

	// When A transmits "e"
	req.NoError(conn.WriteJSON(Inbound{Type: TypeTransmit, Content: "e"}))

	// Then the echo comes back and the tone is streamed
	notice, before := readUntil(t, conn, TypeNotice)
	req.Equal(map[string]any{"text": "Sent: ."}, notice.Payload)
	_, between := readUntil(t, conn, TypeTransmitted)
	if before+between == 0 {
		kind, data, err := conn.ReadMessage()
		req.NoError(err)
		req.Equal(websocket.BinaryMessage, kind)
		req.Len(data, 640)
	}

	// When A types an unknown command, only A is told
	req.NoError(conn.WriteJSON(Inbound{Type: TypeCommand, Text: "qrz"}))
	notice, _ = readUntil(t, conn, TypeNotice)
	req.Contains(notice.Payload.(map[string]any)["text"], "unknown command")

	// When A says bye, the room goes away
	req.NoError(conn.WriteJSON(Inbound{Type: TypeCommand, Text: "bye"}))
	req.Eventually(func() bool { return len(o.Rooms()) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHandleWS_Rejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	server := httptest.NewServer(NewRouter(Routes{
		Log:          slog.Default(),
		WS:           NewServer(slog.Default(), orchestrator, 8, time.Second),
		Orchestrator: orchestrator,
	}))
	defer server.Close()

	t.Run("invalid identity never reaches a room", func(t *testing.T) {
		req := require.New(t)
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/rooms/alpha?realm=abc&user=1"), nil)
		req.ErrorIs(err, websocket.ErrBadHandshake)
		req.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong key is forbidden", func(t *testing.T) {
		req := require.New(t)
		orchestrator.EXPECT().Join(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r contract.JoinRequest) (contract.JoinResult, error) {
				req.Equal("vault", r.Room)
				req.Equal("guess", r.AccessKey)
				req.NotNil(r.Sink)
				return contract.JoinResult{}, fmt.Errorf("room vault: %w", errors.ErrWrongAccessKey)
			})

		_, resp, err := websocket.DefaultDialer.Dial(
			wsURL(server, "/ws/rooms/vault?realm="+alice.RealmID+"&user="+alice.UserID+"&key=guess"), nil)

		req.ErrorIs(err, websocket.ErrBadHandshake)
		req.Equal(http.StatusForbidden, resp.StatusCode)
	})

	t.Run("second session of a member conflicts", func(t *testing.T) {
		req := require.New(t)
		orchestrator.EXPECT().Join(gomock.Any(), gomock.Any()).
			Return(contract.JoinResult{}, errors.ErrAlreadyMember)

		_, resp, err := websocket.DefaultDialer.Dial(
			wsURL(server, "/ws/rooms/alpha?realm="+alice.RealmID+"&user="+alice.UserID), nil)

		req.ErrorIs(err, websocket.ErrBadHandshake)
		req.Equal(http.StatusConflict, resp.StatusCode)
	})
}

func TestHandleWS_OtherRoomInstanceIsIgnored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	server := httptest.NewServer(NewRouter(Routes{
		Log:          slog.Default(),
		WS:           NewServer(slog.Default(), orchestrator, 8, time.Second),
		Orchestrator: orchestrator,
	}))
	defer server.Close()

	roomID := uuid.New()
	sinks := make(chan contract.EventSink, 1)
	orchestrator.EXPECT().Join(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r contract.JoinRequest) (contract.JoinResult, error) {
			sinks <- r.Sink
			return contract.JoinResult{Room: r.Room, RoomID: roomID, Callsign: alice.Callsign(), Created: true}, nil
		})
	orchestrator.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(server, "/ws/rooms/alpha?realm="+alice.RealmID+"&user="+alice.UserID), nil)
	req.NoError(err)
	defer conn.Close()
	sink := <-sinks
	ctx := context.Background()

	// Given the previous "alpha" closing late
	req.NoError(sink.Consume(ctx, event.RoomClosed{Room: "alpha", RoomID: uuid.New()}))
	// When the joined room sends a notice
	req.NoError(sink.Consume(ctx, event.Notice{Room: "alpha", RoomID: roomID, To: alice.Key(), Text: "hello"}))

	// Then the session is still open and gets it
	notice, _ := readUntil(t, conn, TypeNotice)
	req.Equal(map[string]any{"text": "hello"}, notice.Payload)

	// And only its own room closing ends it
	req.NoError(sink.Consume(ctx, event.RoomClosed{Room: "alpha", RoomID: roomID}))
	readUntil(t, conn, TypeRoomClosed)
	_, _, err = conn.ReadMessage()
	req.Error(err)
}

func TestHandleWS_Token(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	signer := auth.NewSigner("test-secret", time.Hour)
	server := httptest.NewServer(NewRouter(Routes{
		Log:          slog.Default(),
		WS:           NewServer(slog.Default(), orchestrator, 8, time.Second),
		Orchestrator: orchestrator,
		Signer:       signer,
	}))
	defer server.Close()

	// Without a token
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/rooms/alpha"), nil)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// With one, the token's identity is used, whatever the query says
	left := make(chan struct{})
	orchestrator.EXPECT().Join(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r contract.JoinRequest) (contract.JoinResult, error) {
			req.Equal(alice, r.Identity)
			return contract.JoinResult{Room: r.Room, Callsign: alice.Callsign(), Created: true}, nil
		})
	orchestrator.EXPECT().Dispatch(gomock.Any(), domain.LeaveCommand{Room: "alpha", By: alice}).
		DoAndReturn(func(context.Context, domain.Command) error {
			close(left)
			return nil
		})
	token, err := signer.GenerateToken(alice)
	req.NoError(err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/rooms/alpha?user=1&realm=99&token="+token), nil)
	req.NoError(err)
	req.NoError(conn.Close())

	select {
	case <-left:
	case <-time.After(2 * time.Second):
		req.FailNow("disconnect did not leave the room")
	}
}

func TestRouter_HTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	transcript := mocks.NewMockTranscriptReader(ctrl)
	server := httptest.NewServer(NewRouter(Routes{
		Log:          slog.Default(),
		WS:           NewServer(slog.Default(), orchestrator, 8, time.Second),
		Orchestrator: orchestrator,
		Transcript:   transcript,
	}))
	defer server.Close()

	get := func(t *testing.T, path string, v any) int {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		if v != nil && resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
		}
		return resp.StatusCode
	}

	t.Run("morse", func(t *testing.T) {
		req := require.New(t)
		var res MorseResponse
		req.Equal(http.StatusOK, get(t, "/morse?text=SOS", &res))
		req.Equal("... --- ...", res.Morse)
		req.Equal(http.StatusBadRequest, get(t, "/morse", nil))
	})

	t.Run("rooms", func(t *testing.T) {
		req := require.New(t)
		summaries := []contract.RoomSummary{{Name: "bravo", Net: true, Host: "AE2GCY", Speaking: "AE2GCY", Members: []string{"AE2GCY"}}}
		orchestrator.EXPECT().Rooms().Return(summaries)
		var res []contract.RoomSummary
		req.Equal(http.StatusOK, get(t, "/rooms", &res))
		req.Equal(summaries, res)
	})

	t.Run("transcript", func(t *testing.T) {
		req := require.New(t)
		transcript.EXPECT().Transmissions("bravo").
			Return([]event.Transmitted{{Room: "bravo", Callsign: "AE2GCY", Morse: "._-"}})
		var res []event.Transmitted
		req.Equal(http.StatusOK, get(t, "/rooms/bravo/transcript", &res))
		req.Len(res, 1)
		req.Equal("._-", res[0].Morse)
	})

	t.Run("archive disabled", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, get(t, "/rooms/bravo/archive", nil))
	})

	t.Run("healthz", func(t *testing.T) {
		require.Equal(t, http.StatusOK, get(t, "/healthz", nil))
	})
}
