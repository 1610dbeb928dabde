package workers

import (
	"context"
	"fmt"
	"log/slog"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"morse-lab/morse"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RoomSettings are shared by every room worker of a process.
type RoomSettings struct {
	SampleRate       int
	DefaultWPM       int
	MaxWPM           int
	MaxContentLength int
	WPMFloor         int
	BufferSize       int
	Keyring          domain.Keyring
	Moderator        contract.IModerator
}

// JoinCommand goes through the room queue like any other command, so joins
// are serialized with everything else the room does.
type JoinCommand struct {
	Request contract.JoinRequest
	reply   chan joinReply
}

type joinReply struct {
	result contract.JoinResult
	err    error
}

func (c JoinCommand) RoomName() string        { return c.Request.Room }
func (c JoinCommand) Sender() domain.Identity { return c.Request.Identity }

var _ contract.Worker = (*RoomWorker)(nil)

// RoomWorker is the actor owning one room: its state machine and the
// participant handles of its members. Every membership, permission and
// transmit decision happens on its goroutine, in queue order.
//
// The worker stops once the room is empty. A panic while applying a command
// is recovered and logged, the worker keeps going; anything escaping the loop
// is left to the supervisor, which restarts Run on the same state.
type RoomWorker struct {
	log       *slog.Logger
	name      string
	room      *domain.Room
	settings  RoomSettings
	scheduler morse.Scheduler
	registry  contract.IRegistry
	commands  chan domain.Command
	events    chan event.DomainEvent
	handles   map[string]*Participant
	summary   atomic.Pointer[contract.RoomSummary]
	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*RoomWorker)
}

func NewRoomWorker(
	log *slog.Logger,
	name string,
	net bool,
	settings RoomSettings,
	registry contract.IRegistry,
	events chan event.DomainEvent,
	onClose func(*RoomWorker),
) *RoomWorker {
	if settings.BufferSize <= 0 {
		settings.BufferSize = 1
	}
	if settings.DefaultWPM <= 0 {
		settings.DefaultWPM = morse.DefaultWPM
	}
	w := &RoomWorker{
		log:       log,
		name:      name,
		room:      domain.NewRoom(name, net).WithKeyring(settings.Keyring),
		settings:  settings,
		scheduler: morse.NewScheduler(settings.WPMFloor),
		registry:  registry,
		commands:  make(chan domain.Command, settings.BufferSize),
		events:    events,
		handles:   make(map[string]*Participant),
		done:      make(chan struct{}),
		onClose:   onClose,
	}
	w.publishSummary()
	return w
}

func (w *RoomWorker) GetName() contract.WorkerName {
	return contract.WorkerName("RoomWorker[" + w.name + "]")
}

func (w *RoomWorker) Name() string {
	return w.name
}

// Commands exposes the queue for capacity monitoring.
func (w *RoomWorker) Commands() chan domain.Command {
	return w.commands
}

// Done is closed once the room is gone.
func (w *RoomWorker) Done() <-chan struct{} {
	return w.done
}

func (w *RoomWorker) Closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Summary returns the snapshot published after the last applied command.
func (w *RoomWorker) Summary() contract.RoomSummary {
	s := w.summary.Load()
	return *s
}

// Join queues a join and waits for the room's answer. It fails with
// ErrRoomClosed when the room shut down before handling it, in which case the
// caller may retry on a fresh room.
func (w *RoomWorker) Join(ctx context.Context, req contract.JoinRequest) (contract.JoinResult, error) {
	reply := make(chan joinReply, 1)
	select {
	case <-w.done:
		return contract.JoinResult{}, errors.ErrRoomClosed
	default:
	}
	select {
	case w.commands <- JoinCommand{Request: req, reply: reply}:
	case <-w.done:
		return contract.JoinResult{}, errors.ErrRoomClosed
	case <-ctx.Done():
		return contract.JoinResult{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.result, r.err
	case <-w.done:
		select {
		case r := <-reply:
			return r.result, r.err
		default:
			return contract.JoinResult{}, errors.ErrRoomClosed
		}
	case <-ctx.Done():
		return contract.JoinResult{}, ctx.Err()
	}
}

// Submit queues cmd. It blocks while the queue is full.
func (w *RoomWorker) Submit(ctx context.Context, cmd domain.Command) error {
	select {
	case <-w.done:
		return errors.ErrRoomClosed
	default:
	}
	select {
	case w.commands <- cmd:
		return nil
	case <-w.done:
		return errors.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	if w.Closed() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room worker", "room", w.name)
			w.shutdown()
			return ctx.Err()
		case cmd := <-w.commands:
			if empty := w.apply(ctx, cmd); empty {
				w.log.Info("Room is empty, closing", "room", w.name)
				w.shutdown()
				return nil
			}
		}
	}
}

// apply runs one command and reports whether the room is now empty.
func (w *RoomWorker) apply(ctx context.Context, cmd domain.Command) (empty bool) {
	joinedBefore := w.room.Capabilities(cmd.Sender()).Member
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Command panicked", "room", w.name,
				"command", fmt.Sprintf("%T", cmd), "panic", r)
			if join, ok := cmd.(JoinCommand); ok {
				// a joiner told ErrWorkerPanic must not stay behind as a member
				if !joinedBefore && w.room.Capabilities(join.Request.Identity).Member {
					w.leave(join.Request.Identity)
				}
				select {
				case join.reply <- joinReply{err: errors.ErrWorkerPanic}:
				default:
				}
			}
			w.room.FlushEvents()
			w.publishSummary()
			empty = w.room.Empty()
		}
	}()

	refresh := false
	var reply func()
	switch c := cmd.(type) {
	case JoinCommand:
		reply = w.join(c)
	case domain.LeaveCommand:
		w.leave(c.By)
	case domain.TransmitCommand:
		w.transmit(ctx, c)
	case domain.SetWPMCommand:
		refresh = w.setWPM(ctx, c)
	case domain.TransferHostCommand:
		if err := w.room.TransferHost(c.By, c.Callsign); err != nil {
			w.notify(ctx, c.By, err.Error())
		}
	case domain.TransferSpeakingCommand:
		if err := w.room.TransferSpeaking(c.By, c.Callsign); err != nil {
			w.notify(ctx, c.By, err.Error())
		}
	case domain.RelinquishCommand:
		if err := w.room.Relinquish(c.By); err != nil {
			w.notify(ctx, c.By, err.Error())
		}
	case domain.ListUsersCommand:
		w.listUsers(ctx, c.By)
	case domain.SetAccessKeyCommand:
		if err := w.room.SetAccessKey(c.By, c.Key, c.Confirm); err != nil {
			w.notify(ctx, c.By, err.Error())
		} else {
			w.notify(ctx, c.By, "Access key updated")
			refresh = true
		}
	default:
		w.log.Warn("Unsupported command", "room", w.name, "command", fmt.Sprintf("%T", cmd))
	}

	w.flush(ctx, refresh)
	// the joiner hears back once its membership is visible in the summary
	if reply != nil {
		reply()
	}
	return w.room.Empty()
}

func (w *RoomWorker) join(c JoinCommand) func() {
	req := c.Request
	created := w.room.Empty()
	if err := w.room.Join(req.Identity, req.AccessKey, req.Confirm); err != nil {
		w.log.Info("Join rejected", "room", w.name, "callsign", req.Identity.Callsign(), "error", err)
		return func() { c.reply <- joinReply{err: fmt.Errorf("room %s: %w", w.name, err)} }
	}
	p := NewParticipant(req.Identity, w.settings.SampleRate, w.settings.DefaultWPM)
	w.handles[p.Key()] = p
	if req.Sink != nil {
		w.registry.Subscribe(p.Key(), w.room.ID, req.Sink)
	}
	w.log.Info("Participant joined", "room", w.name, "callsign", p.Callsign, "created", created)
	res := contract.JoinResult{
		Room:     w.name,
		RoomID:   w.room.ID,
		Net:      w.room.Net,
		Callsign: p.Callsign,
		Created:  created,
		Audio:    p.Source(),
	}
	return func() { c.reply <- joinReply{result: res} }
}

func (w *RoomWorker) leave(id domain.Identity) {
	if _, err := w.room.Leave(id); err != nil {
		w.log.Debug("Leave ignored", "room", w.name, "callsign", id.Callsign(), "error", err)
		return
	}
	if p, ok := w.handles[id.Key()]; ok {
		p.Close()
		delete(w.handles, id.Key())
	}
	w.registry.Unsubscribe(id.Key(), w.room.ID)
	w.log.Info("Participant left", "room", w.name, "callsign", id.Callsign())
}

func (w *RoomWorker) transmit(ctx context.Context, c domain.TransmitCommand) {
	sender, ok := w.handles[c.By.Key()]
	if !ok {
		w.log.Debug("Transmission from a non member dropped", "room", w.name, "callsign", c.By.Callsign())
		return
	}
	// Unauthorized keying stays silent, whatever the content.
	if !w.room.CanTransmit(c.By) {
		w.log.Debug("Unauthorized transmission dropped", "room", w.name, "callsign", sender.Callsign)
		return
	}
	content := strings.TrimSpace(c.Content)
	switch {
	case content == "":
		w.notify(ctx, c.By, errors.ErrEmptyContent.Error())
		return
	case w.settings.MaxContentLength > 0 && len(content) > w.settings.MaxContentLength:
		w.notify(ctx, c.By, fmt.Sprintf("%s (max %d)", errors.ErrContentTooLong, w.settings.MaxContentLength))
		return
	}
	code := content
	if c.Kind == domain.Text {
		if w.settings.Moderator != nil {
			var words []string
			if content, words = w.settings.Moderator.Censor(content); len(words) > 0 {
				w.log.Info("Transmission censored", "room", w.name, "callsign", sender.Callsign, "words", len(words))
			}
		}
		code = morse.Encode(content)
	}
	normalized := morse.Normalize(code)
	frames := morse.NewTiming(sender.WPM, w.scheduler.Floor()).Length(normalized)

	if !w.room.Transmit(c.By, normalized, sender.WPM, frames) {
		return
	}
	for _, p := range w.handles {
		w.scheduler.EnqueueMorse(p.Source(), normalized, sender.WPM, sender.Frequency)
	}
	w.notify(ctx, c.By, "Sent: "+code)
}

func (w *RoomWorker) setWPM(ctx context.Context, c domain.SetWPMCommand) bool {
	p, ok := w.handles[c.By.Key()]
	if !ok {
		return false
	}
	if c.WPM < 1 || (w.settings.MaxWPM > 0 && c.WPM > w.settings.MaxWPM) {
		w.notify(ctx, c.By, fmt.Sprintf("%s: %d", errors.ErrInvalidWPM, c.WPM))
		return false
	}
	p.WPM = c.WPM
	w.notify(ctx, c.By, fmt.Sprintf("WPM set to %d", c.WPM))
	return true
}

func (w *RoomWorker) listUsers(ctx context.Context, by domain.Identity) {
	users, err := w.room.Users(by)
	if err != nil {
		return
	}
	lines := lo.Map(users, func(m domain.Member, _ int) string {
		if m.Pending {
			return m.Callsign + " (new)"
		}
		return m.Callsign
	})
	w.notify(ctx, by, strings.Join(lines, "\n"))
}

// flush forwards the room's outbox to the fanout, then refreshes every
// member's state view when roles or membership moved.
func (w *RoomWorker) flush(ctx context.Context, refresh bool) {
	events := w.room.FlushEvents()
	for _, e := range events {
		switch e.(type) {
		case event.MemberJoined, event.MemberLeft, event.HostChanged, event.SpeakingChanged:
			refresh = true
		}
		w.emit(ctx, e)
	}
	if refresh {
		for _, m := range w.room.Members() {
			w.emit(ctx, w.stateView(m))
		}
	}
	w.publishSummary()
}

func (w *RoomWorker) stateView(m domain.Member) event.StateView {
	caps := w.room.Capabilities(m.Identity)
	view := event.StateView{
		ID:            uuid.New(),
		Room:          w.name,
		RoomID:        w.room.ID,
		To:            m.Identity.Key(),
		Net:           w.room.Net,
		Callsign:      m.Callsign,
		Members:       w.room.Size(),
		CanTransmit:   caps.CanTransmit,
		CanAssign:     caps.CanAssign,
		CanRelinquish: caps.CanRelinquish,
		At:            time.Now().UTC(),
	}
	if p, ok := w.handles[m.Identity.Key()]; ok {
		view.WPM = p.WPM
	}
	if host, ok := w.room.Host(); ok {
		view.Host = host.Callsign()
	}
	if speaking, ok := w.room.Speaking(); ok {
		view.Speaking = speaking.Callsign()
	}
	return view
}

func (w *RoomWorker) notify(ctx context.Context, to domain.Identity, text string) {
	w.emit(ctx, event.Notice{ID: uuid.New(), Room: w.name, RoomID: w.room.ID, To: to.Key(), Text: text, At: time.Now().UTC()})
}

func (w *RoomWorker) emit(ctx context.Context, e event.DomainEvent) {
	select {
	case <-ctx.Done():
	case w.events <- e:
	}
}

func (w *RoomWorker) publishSummary() {
	s := contract.RoomSummary{
		Name:    w.name,
		Net:     w.room.Net,
		Locked:  w.room.HasAccessKey(),
		Members: lo.Map(w.room.Members(), func(m domain.Member, _ int) string { return m.Callsign }),
	}
	if host, ok := w.room.Host(); ok {
		s.Host = host.Callsign()
	}
	if speaking, ok := w.room.Speaking(); ok {
		s.Speaking = speaking.Callsign()
	}
	w.summary.Store(&s)
}

// shutdown releases the room from its registry, then rejects whatever is
// still queued.
func (w *RoomWorker) shutdown() {
	w.closeOnce.Do(func() {
		if w.onClose != nil {
			w.onClose(w)
		}
		close(w.done)
		for key, p := range w.handles {
			p.Close()
			w.registry.Unsubscribe(key, w.room.ID)
		}
		clear(w.handles)
		w.publishSummary()
		for {
			select {
			case cmd := <-w.commands:
				if join, ok := cmd.(JoinCommand); ok {
					join.reply <- joinReply{err: errors.ErrRoomClosed}
				}
			default:
				return
			}
		}
	})
}
