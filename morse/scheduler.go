package morse

import (
	"math"
	"strings"
)

const (
	// FrameMillis is the duration of one output audio frame.
	FrameMillis = 20
	// DefaultWPMFloor clamps the symbol length at slow speeds.
	DefaultWPMFloor = 12
	// DefaultWPM is the speed given to new participants.
	DefaultWPM = 15

	// PARIS timing: one dit lasts 1200/wpm milliseconds.
	ditMillisAtOneWPM = 1200.0
)

// ToneSink receives run-length tone instructions for one frequency.
// audio.FrameSource implements it.
type ToneSink interface {
	Push(frequency float64, on bool, frames int)
}

// Timing holds the frame counts derived from a WPM setting.
type Timing struct {
	DitFrames   int
	PauseFrames int
}

// NewTiming computes frame counts for wpm. The floor only clamps the symbol
// length, spacing always follows the requested speed.
func NewTiming(wpm, floor int) Timing {
	if wpm < 1 {
		wpm = 1
	}
	return Timing{
		DitFrames:   framesFor(max(floor, wpm)),
		PauseFrames: framesFor(wpm),
	}
}

func framesFor(wpm int) int {
	frames := int(math.RoundToEven(ditMillisAtOneWPM / float64(wpm) / FrameMillis))
	return max(frames, 1)
}

// Frames returns how many frames a normalized Morse character lasts and
// whether the tone is on during it.
func (t Timing) Frames(c rune) (frames int, on bool) {
	switch c {
	case '.':
		return t.DitFrames, true
	case '-':
		return 3 * t.DitFrames, true
	case '_':
		return t.DitFrames, false
	case ' ':
		return 3 * t.PauseFrames, false
	case '/':
		return 7 * t.PauseFrames, false
	}
	return 0, false
}

// Normalize keeps only dots and dashes, marks the gap between symbols of a
// character with "_", separates characters by " " and words by "/".
func Normalize(code string) string {
	words := strings.Split(code, "/")
	for i, word := range words {
		tokens := strings.Fields(word)
		for j, token := range tokens {
			var symbols []string
			for _, r := range token {
				if r == '.' || r == '-' {
					symbols = append(symbols, string(r))
				}
			}
			tokens[j] = strings.Join(symbols, "_")
		}
		words[i] = strings.Join(tokens, " ")
	}
	return strings.Join(words, "/")
}

// Length returns the number of frames a normalized Morse string occupies.
func (t Timing) Length(normalized string) int {
	total := 0
	for _, c := range normalized {
		frames, _ := t.Frames(c)
		total += frames
	}
	return total
}

// Scheduler queues Morse as timed tone events.
type Scheduler struct {
	floor int
}

func NewScheduler(floor int) Scheduler {
	if floor < 1 {
		floor = DefaultWPMFloor
	}
	return Scheduler{floor: floor}
}

// Floor returns the WPM below which symbol length stops growing.
func (s Scheduler) Floor() int {
	return s.floor
}

// EnqueueMorse normalizes code, pushes its tone events into sink on the
// given frequency and returns the normalized string.
func (s Scheduler) EnqueueMorse(sink ToneSink, code string, wpm int, frequency float64) string {
	normalized := Normalize(code)
	timing := NewTiming(wpm, s.floor)
	for _, c := range normalized {
		frames, on := timing.Frames(c)
		if frames > 0 {
			sink.Push(frequency, on, frames)
		}
	}
	return normalized
}

// EnqueueText encodes text before scheduling it.
func (s Scheduler) EnqueueText(sink ToneSink, text string, wpm int, frequency float64) string {
	return s.EnqueueMorse(sink, Encode(text), wpm, frequency)
}
