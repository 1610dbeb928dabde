package morse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type push struct {
	frequency float64
	on        bool
	frames    int
}

type recordingSink struct {
	pushes []push
}

func (s *recordingSink) Push(frequency float64, on bool, frames int) {
	s.pushes = append(s.pushes, push{frequency, on, frames})
}

func (s *recordingSink) total(on bool) int {
	n := 0
	for _, p := range s.pushes {
		if p.on == on {
			n += p.frames
		}
	}
	return n
}

func TestEncode_SOS(t *testing.T) {
	require.Equal(t, "... --- ...", Encode("SOS"))
}

func TestEncode_WordsAndUnknown(t *testing.T) {
	req := require.New(t)
	req.Equal(".- / -...", Encode("a b"))
	req.Equal(Unknown, Encode("#"))
	req.Equal("---. "+Unknown, Encode("!é"))
}

func TestEncode_IsTotalAndDeterministic(t *testing.T) {
	req := require.New(t)
	text := "Hello, World! ~ 42 @ {}"
	first := Encode(text)
	req.Equal(first, Encode(text))
	// one token per rune
	req.Len(strings.Split(first, " "), len([]rune(text)))
	for _, token := range strings.Split(first, " ") {
		req.NotEmpty(token)
	}
}

func TestEntries_Sorted(t *testing.T) {
	req := require.New(t)
	entries := Entries()
	req.Len(entries, len(alphabet))
	for i := 1; i < len(entries); i++ {
		req.Less(entries[i-1].Char, entries[i].Char)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"...", "._._."},
		{".- .-.", "._- ._-_."},
		{".- / -...", "._-/-_._._."},
		{"  .x-  ", "._-"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestNewTiming(t *testing.T) {
	req := require.New(t)

	// Given a speed above the floor, both units follow the speed
	req.Equal(Timing{DitFrames: 4, PauseFrames: 4}, NewTiming(15, DefaultWPMFloor))

	// Given a speed below the floor, only the pause stretches
	slow := NewTiming(5, DefaultWPMFloor)
	req.Equal(5, slow.DitFrames)
	req.Equal(12, slow.PauseFrames)

	// Very fast speeds never collapse to zero frames
	req.Equal(Timing{DitFrames: 1, PauseFrames: 1}, NewTiming(500, DefaultWPMFloor))
}

func TestScheduler_SingleDit(t *testing.T) {
	req := require.New(t)
	sink := &recordingSink{}

	normalized := NewScheduler(DefaultWPMFloor).EnqueueText(sink, "E", 15, 665)

	req.Equal(".", normalized)
	req.Equal([]push{{665, true, 4}}, sink.pushes)
}

func TestScheduler_QueueLengthMatchesTiming(t *testing.T) {
	req := require.New(t)
	sink := &recordingSink{}
	scheduler := NewScheduler(DefaultWPMFloor)

	normalized := scheduler.EnqueueText(sink, "SOS", 15, 440)

	// ._._. + ' ' + -_-_- + ' ' + ._._.
	req.Equal("._._. -_-_- ._._.", normalized)
	req.Equal(20+12+44+12+20, sink.total(true)+sink.total(false))
	req.Equal(4*6+12*3, sink.total(true))
	req.Equal(NewTiming(15, DefaultWPMFloor).Length(normalized), sink.total(true)+sink.total(false))
}

func TestScheduler_WordGapUsesPause(t *testing.T) {
	req := require.New(t)
	sink := &recordingSink{}

	NewScheduler(DefaultWPMFloor).EnqueueMorse(sink, ". / .", 6, 300)

	// dit clamped to 12 WPM (5 frames), pause follows 6 WPM (10 frames)
	req.Equal([]push{{300, true, 5}, {300, false, 70}, {300, true, 5}}, sink.pushes)
}

func TestDecode(t *testing.T) {
	req := require.New(t)
	req.Equal("sos", Decode("... --- ..."))
	req.Equal("cq de", Decode(Normalize(Encode("CQ DE"))))
	req.Equal("a?", Decode(".- ......."))
	req.Empty(Decode(" / "))
}
