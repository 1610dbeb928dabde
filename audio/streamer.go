package audio

import (
	"encoding/binary"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Streamer exposes a FrameSource as a beep.Streamer. It ends once the
// source has no pending tones and the current frame is consumed, which
// makes it suitable for offline rendering.
type Streamer struct {
	src   *FrameSource
	frame []byte
	pos   int
}

var _ beep.Streamer = (*Streamer)(nil)

func NewStreamer(src *FrameSource) *Streamer {
	return &Streamer{src: src}
}

// Format describes the source's output for beep encoders.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.src.SampleRate()),
		NumChannels: Channels,
		Precision:   SampleBytes,
	}
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	stride := Channels * SampleBytes
	for n < len(samples) {
		if s.pos >= len(s.frame) {
			if s.src.Idle() {
				return n, n > 0
			}
			s.frame = s.src.ReadFrame()
			s.pos = 0
		}
		left := int16(binary.LittleEndian.Uint16(s.frame[s.pos:]))
		right := int16(binary.LittleEndian.Uint16(s.frame[s.pos+SampleBytes:]))
		samples[n][0] = float64(left) / amplitude
		samples[n][1] = float64(right) / amplitude
		s.pos += stride
		n++
	}
	return n, true
}

func (s *Streamer) Err() error {
	return nil
}

// WriteWAV drains src into w as a WAV file.
func WriteWAV(w io.WriteSeeker, src *FrameSource) error {
	s := NewStreamer(src)
	return wav.Encode(w, s, s.Format())
}

// WriteRaw drains src into w as raw interleaved PCM and returns the number of
// frames written.
func WriteRaw(w io.Writer, src *FrameSource) (int, error) {
	frames := 0
	for !src.Idle() {
		if _, err := w.Write(src.ReadFrame()); err != nil {
			return frames, err
		}
		frames++
	}
	return frames, nil
}
