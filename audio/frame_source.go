package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sort"
	"sync"
)

// run is a stretch of identical tone events, one per frame.
type run struct {
	on     bool
	frames int
}

// toneQueue is a FIFO of per-frame tone events for one frequency, stored
// run-length encoded.
type toneQueue struct {
	runs    []run
	head    int
	pending int
}

func (q *toneQueue) push(on bool, frames int) {
	if n := len(q.runs); n > q.head && q.runs[n-1].on == on {
		q.runs[n-1].frames += frames
	} else {
		q.runs = append(q.runs, run{on: on, frames: frames})
	}
	q.pending += frames
}

// pop consumes one frame. An empty queue reads as off.
func (q *toneQueue) pop() bool {
	if q.pending == 0 {
		return false
	}
	r := &q.runs[q.head]
	on := r.on
	r.frames--
	q.pending--
	if r.frames == 0 {
		q.head++
		if q.head == len(q.runs) {
			q.runs = q.runs[:0]
			q.head = 0
		} else if q.head > len(q.runs)/2 {
			q.runs = append(q.runs[:0], q.runs[q.head:]...)
			q.head = 0
		}
	}
	return on
}

// FrameSource is a pull-based PCM generator. The transport calls ReadFrame
// once per frame; schedulers call Push from any goroutine.
//
// The lock only guards queue bookkeeping, samples are synthesized outside it.
type FrameSource struct {
	sampleRate int
	samples    int

	mu     sync.Mutex
	phase  uint64
	queues map[float64]*toneQueue
	closed bool
}

func NewFrameSource(sampleRate int) *FrameSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FrameSource{
		sampleRate: sampleRate,
		samples:    SamplesPerFrame(sampleRate),
		queues:     make(map[float64]*toneQueue),
	}
}

func (s *FrameSource) SampleRate() int {
	return s.sampleRate
}

// FrameSize returns the constant length of ReadFrame's result.
func (s *FrameSource) FrameSize() int {
	return s.samples * Channels * SampleBytes
}

// Push appends frames tone events for frequency. Pushing to a closed source
// is a no-op.
func (s *FrameSource) Push(frequency float64, on bool, frames int) {
	if frames <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	q, ok := s.queues[frequency]
	if !ok {
		q = &toneQueue{}
		s.queues[frequency] = q
	}
	q.push(on, frames)
}

// Pending returns the number of frames still queued for frequency.
func (s *FrameSource) Pending(frequency float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[frequency]; ok {
		return q.pending
	}
	return 0
}

// Idle reports whether every queue is drained.
func (s *FrameSource) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		if q.pending > 0 {
			return false
		}
	}
	return true
}

// Frequencies returns the tracked frequencies in ascending order.
func (s *FrameSource) Frequencies() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, 0, len(s.queues))
	for f := range s.queues {
		out = append(out, f)
	}
	sort.Float64s(out)
	return out
}

// Close discards every pending tone. Later reads return silence.
func (s *FrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.queues)
	return nil
}

// ReadFrame returns the next frame. It never blocks on anything but the
// source's own lock and always returns FrameSize bytes.
func (s *FrameSource) ReadFrame() []byte {
	frame := make([]byte, s.FrameSize())
	s.fill(frame)
	return frame
}

// Read implements io.Reader by writing as many whole frames as fit in p.
func (s *FrameSource) Read(p []byte) (int, error) {
	size := s.FrameSize()
	if len(p) < size {
		return 0, io.ErrShortBuffer
	}
	n := len(p) / size * size
	for off := 0; off < n; off += size {
		s.fill(p[off : off+size])
	}
	return n, nil
}

func (s *FrameSource) fill(frame []byte) {
	s.mu.Lock()
	var active []float64
	for f, q := range s.queues {
		if q.pop() {
			active = append(active, f)
		}
	}
	phase := s.phase
	s.phase += uint64(s.samples)
	s.mu.Unlock()

	if len(active) == 0 {
		clear(frame)
		return
	}
	sort.Float64s(active)

	rate := float64(s.sampleRate)
	stride := Channels * SampleBytes
	for i := 0; i < s.samples; i++ {
		var sum float64
		for _, f := range active {
			sum += math.Sin(2 * math.Pi * f * s.position(phase+uint64(i), f) / rate)
		}
		sample := uint16(int16(sum / float64(len(active)) * amplitude))
		off := i * stride
		for c := 0; c < Channels; c++ {
			binary.LittleEndian.PutUint16(frame[off+c*SampleBytes:], sample)
		}
	}
}

// position reduces the sample counter by whole seconds. For integral
// frequencies a second holds a whole number of periods, so the phase stays
// continuous while float precision is kept over long sessions.
func (s *FrameSource) position(n uint64, frequency float64) float64 {
	if frequency == math.Trunc(frequency) {
		return float64(n % uint64(s.sampleRate))
	}
	return float64(n)
}
