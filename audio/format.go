// Package audio synthesizes the PCM stream each participant hears.
//
// Tones are generated as mono 16-bit signed samples and duplicated into two
// little-endian channels, one fixed 20 ms frame per read:
//
//	src := audio.NewFrameSource(audio.DefaultSampleRate)
//	src.Push(665, true, 4)  // 80 ms of 665 Hz
//	frame := src.ReadFrame() // 3840 bytes at 48 kHz
package audio

import "time"

const (
	// DefaultSampleRate is the rate voice transports expect.
	DefaultSampleRate = 48000
	// FrameDuration is the length of one frame.
	FrameDuration = 20 * time.Millisecond
	// Channels is the number of interleaved output channels.
	Channels = 2
	// SampleBytes is the width of one sample of one channel.
	SampleBytes = 2

	amplitude = 32767
)

// SamplesPerFrame returns the number of samples per channel in one frame.
func SamplesPerFrame(sampleRate int) int {
	return int(time.Duration(sampleRate) * FrameDuration / time.Second)
}

// FrameSize returns the byte length of one frame.
func FrameSize(sampleRate int) int {
	return SamplesPerFrame(sampleRate) * Channels * SampleBytes
}

// FramesIn returns how many whole frames fit in d.
func FramesIn(d time.Duration) int {
	return int(d / FrameDuration)
}
