// Package audio binds a block source to the soundcard. Each driver read
// becomes exactly one Collect call on the source, which fills the block
// with interleaved signed 16-bit PCM.
package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource renders one block of interleaved stereo int16 samples per
// call. It runs on the audio callback and must not block; the returned
// flag reports whether the block was rendered or skipped to silence.
type BlockSource interface {
	Collect(dst []int16) bool
}

// StreamReader adapts a BlockSource to the byte stream the audio driver
// consumes: 16-bit little-endian stereo.
type StreamReader struct {
	mu     sync.Mutex
	source BlockSource
	buf    []int16
}

func NewStreamReader(source BlockSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]int16, need)
	}
	r.buf = r.buf[:need]
	r.source.Collect(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return frames * 4, nil
}

func (r *StreamReader) Close() error { return nil }

// Output feeds a block source to the soundcard.
type Output struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide driver context. The
// driver allows one context per process at one fixed rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewOutput(sampleRate int, source BlockSource) (*Output, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	return &Output{
		player: pl,
		reader: reader,
	}, nil
}

func (o *Output) Play()  { o.player.Play() }
func (o *Output) Pause() { o.player.Pause() }
func (o *Output) IsPlaying() bool {
	return o.player.IsPlaying()
}

func (o *Output) Stop() error {
	o.player.Pause()
	o.player.Close()
	return o.reader.Close()
}
