package track

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes an entire WAV stream into a track. Samples are
// rescaled to 16-bit; mono is up-mixed to stereo, channels beyond the
// second are discarded.
func ReadWAV(r io.ReadSeeker) (*Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("track: not a WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("track: decode WAV: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.New("track: WAV has no format chunk")
	}
	return New(buf.Format.SampleRate, interleave16(buf))
}

// interleave16 folds a decoded buffer of any channel count and bit
// depth into interleaved stereo int16.
func interleave16(buf *audio.IntBuffer) []int16 {
	shiftDown := uint(0)
	if buf.SourceBitDepth > 16 {
		shiftDown = uint(buf.SourceBitDepth - 16)
	}
	shiftUp := uint(0)
	if buf.SourceBitDepth > 0 && buf.SourceBitDepth < 16 {
		shiftUp = uint(16 - buf.SourceBitDepth)
	}

	chans := buf.Format.NumChannels
	frames := len(buf.Data) / chans
	pcm := make([]int16, 0, frames*Channels)
	for f := 0; f < frames; f++ {
		l := sample16(buf.Data[f*chans], shiftDown, shiftUp)
		r := l
		if chans > 1 {
			r = sample16(buf.Data[f*chans+1], shiftDown, shiftUp)
		}
		pcm = append(pcm, l, r)
	}
	return pcm
}

func sample16(v int, shiftDown, shiftUp uint) int16 {
	v >>= shiftDown
	v <<= shiftUp
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}
