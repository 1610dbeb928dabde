// Package gateway exposes rooms over HTTP and websockets: JSON commands and
// notifications as text frames, PCM audio as binary frames.
package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"morse-lab/audio"
	"morse-lab/auth"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 16
)

type Server struct {
	log                  *slog.Logger
	orchestrator         contract.IOrchestrator
	upgrader             websocket.Upgrader
	connectionBufferSize int
	pingEvery            time.Duration
	frameEvery           time.Duration
}

func NewServer(log *slog.Logger, orchestrator contract.IOrchestrator,
	connectionBufferSize int, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		log:                  log,
		orchestrator:         orchestrator,
		connectionBufferSize: connectionBufferSize,
		pingEvery:            pingEvery,
		frameEvery:           audio.FrameDuration,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS serves GET /ws/rooms/{name}?realm=&user=&net=&key=&confirm=.
// The identity comes from the auth middleware when tokens are enabled, from
// the query otherwise. The join happens before the upgrade so a rejection is
// a plain HTTP error.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	room := RoomFromPath(r)
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		var err error
		if id, err = domain.NewIdentity(q.Get("realm"), q.Get("user")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	net, _ := strconv.ParseBool(q.Get("net"))

	sink := NewSink(s.connectionBufferSize)
	res, err := s.orchestrator.Join(r.Context(), contract.JoinRequest{
		Room:      room,
		Net:       net,
		Identity:  id,
		AccessKey: q.Get("key"),
		Confirm:   q.Get("confirm"),
		Sink:      sink,
	})
	if err != nil {
		s.log.Info("Join refused", "room", room, "callsign", id.Callsign(), "error", err)
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "room", room, "error", err)
		s.leave(res.Room, id)
		return
	}

	session := &session{
		id:       uuid.New(),
		server:   s,
		conn:     conn,
		room:     res.Room,
		roomID:   res.RoomID,
		identity: id,
		sink:     sink,
		audio:    res.Audio,
		closed:   make(chan struct{}),
	}
	s.log.Info("Session opened", "session", session.id, "room", res.Room,
		"callsign", res.Callsign, "created", res.Created)

	ctx, cancel := context.WithCancel(context.Background())
	go session.writeLoop(ctx)
	session.readLoop(ctx)
	cancel()

	s.leave(res.Room, id)
	_ = session.close()
	s.log.Info("Session closed", "session", session.id, "room", res.Room, "callsign", res.Callsign)
}

func (s *Server) leave(room string, id domain.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	err := s.orchestrator.Dispatch(ctx, domain.LeaveCommand{Room: room, By: id})
	if err != nil && !stderrors.Is(err, errors.ErrUnknownRoom) && !stderrors.Is(err, errors.ErrRoomClosed) {
		s.log.Debug("ws leave room failed", "room", room, "callsign", id.Callsign(), "error", err)
	}
}

func statusOf(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrWrongAccessKey), stderrors.Is(err, errors.ErrAccessKeyMismatch):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrAlreadyMember):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidIdentity), stderrors.Is(err, errors.ErrInvalidPayload):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// session is one participant's connection. Only writeLoop writes to conn.
type session struct {
	id        uuid.UUID
	server    *Server
	conn      *websocket.Conn
	room      string
	roomID    uuid.UUID
	identity  domain.Identity
	sink      *Sink
	audio     contract.AudioSource
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *session) close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *session) readLoop(ctx context.Context) {
	defer func() { _ = c.close() }()
	log := c.server.log

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * c.server.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * c.server.pingEvery))
	})

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("ws read failed", "session", c.id, "error", err)
			}
			return
		}
		cmd, err := ToCommand(c.room, c.identity, in)
		if err != nil {
			c.notice(ctx, err.Error())
			continue
		}
		if err := c.server.orchestrator.Dispatch(ctx, cmd); err != nil {
			c.notice(ctx, err.Error())
			return
		}
		if _, bye := cmd.(domain.LeaveCommand); bye {
			return
		}
	}
}

// notice answers the client directly, through its own mailbox.
func (c *session) notice(ctx context.Context, text string) {
	n := event.Notice{ID: uuid.New(), Room: c.room, RoomID: c.roomID, To: c.identity.Key(), Text: text, At: time.Now().UTC()}
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	_ = c.sink.Consume(ctx, n)
}

// writeLoop pushes notifications as they come, one audio frame per tick
// while tones are queued, and pings.
func (c *session) writeLoop(ctx context.Context) {
	log := c.server.log
	ping := time.NewTicker(c.server.pingEvery)
	defer ping.Stop()
	frames := time.NewTicker(c.server.frameEvery)
	defer frames.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case e := <-c.sink.Events:
			// only the room instance this session joined speaks to it
			if e.Instance() != c.roomID {
				log.Debug("ws event of another room instance dropped", "session", c.id, "room", e.RoomName())
				continue
			}
			out, ok := ToOutbound(e)
			if !ok {
				continue
			}
			if err := c.write(func() error { return c.conn.WriteJSON(out) }); err != nil {
				log.Debug("ws write failed", "session", c.id, "error", err)
				_ = c.close()
				return
			}
			if out.Type == TypeRoomClosed {
				_ = c.close()
				return
			}
		case <-frames.C:
			if c.audio == nil || silent(c.audio) {
				continue
			}
			frame := c.audio.ReadFrame()
			if err := c.write(func() error { return c.conn.WriteMessage(websocket.BinaryMessage, frame) }); err != nil {
				log.Debug("ws audio write failed", "session", c.id, "error", err)
				_ = c.close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("ws ping failed", "session", c.id, "error", err)
			}
		}
	}
}

func (c *session) write(fn func() error) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return fmt.Errorf("session %s: %w", c.id, err)
	}
	return nil
}

// silent reports whether src has nothing queued, when it can tell.
func silent(src contract.AudioSource) bool {
	idler, ok := src.(interface{ Idle() bool })
	return ok && idler.Idle()
}

// RoomFromPath extracts the room name of a chi route.
func RoomFromPath(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "name"))
}
