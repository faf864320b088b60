package track

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// ReadMP3 decodes an entire MP3 stream into a track. go-mp3 always
// produces 16-bit little-endian stereo at the file's sample rate.
func ReadMP3(r io.Reader) (*Track, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("track: decode MP3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("track: read MP3 PCM: %w", err)
	}
	raw = raw[:len(raw)-len(raw)%4] // whole stereo frames only

	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return New(dec.SampleRate(), pcm)
}
