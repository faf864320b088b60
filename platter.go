// Package platter is the playback core of a digital vinyl rig: decks
// that render and vary-speed tracks in real time, driven either by a
// simulated motor or by external position reports, with MIDI pad
// controllers dispatching cue and loop actions onto them.
package platter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/platterkit/platter-go/internal/audio"
	"github.com/platterkit/platter-go/internal/controller"
	"github.com/platterkit/platter-go/internal/dicer"
	"github.com/platterkit/platter-go/internal/track"
)

// Channels is the number of interleaved output channels.
const Channels = track.Channels

// Controller is a device that dispatches performance actions onto
// decks. The Rig services its I/O.
type Controller = controller.Controller

// Descriptor announces a controller I/O handle to the rig.
type Descriptor = controller.Descriptor

// Track is an immutable decoded audio clip shared between decks.
type Track = track.Track

// Output drives the soundcard from a deck.
type Output = audio.Output

// LoadTrack decodes the audio file at path into a track, picking the
// decoder from the file extension. The caller owns one reference.
func LoadTrack(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return track.ReadWAV(f)
	case ".mp3":
		return track.ReadMP3(f)
	default:
		return nil, fmt.Errorf("unsupported track format %q", filepath.Ext(path))
	}
}

// OpenDicer attaches a Novation Dicer on the named MIDI port. An empty
// name takes the first available input port.
func OpenDicer(port string) (*dicer.Dicer, error) {
	return dicer.Open(port)
}

// NewOutput opens the soundcard at the given rate, collecting blocks
// from the deck.
func NewOutput(sampleRate int, d *Deck) (*Output, error) {
	return audio.NewOutput(sampleRate, d)
}
