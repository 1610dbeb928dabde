package workers

import (
	"morse-lab/audio"
	"morse-lab/domain"
	"time"
)

// Participant binds an identity to the audio it hears and the speed it keys
// at. It is owned by the room worker that created it and only touched from
// that worker's goroutine, except for its FrameSource which the transport
// reads concurrently.
type Participant struct {
	Identity  domain.Identity
	Callsign  string
	Frequency float64
	WPM       int
	JoinedAt  time.Time
	source    *audio.FrameSource
}

func NewParticipant(id domain.Identity, sampleRate, wpm int) *Participant {
	return &Participant{
		Identity:  id,
		Callsign:  id.Callsign(),
		Frequency: id.Frequency(),
		WPM:       wpm,
		JoinedAt:  time.Now().UTC(),
		source:    audio.NewFrameSource(sampleRate),
	}
}

func (p *Participant) Key() string {
	return p.Identity.Key()
}

func (p *Participant) Source() *audio.FrameSource {
	return p.source
}

// Close discards every queued tone.
func (p *Participant) Close() {
	_ = p.source.Close()
}
