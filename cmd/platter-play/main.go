// Command platter-play plays an audio file through a deck, driving the
// read head from the simulated motor. A Novation Dicer can be attached
// over MIDI for cue, loop and pitch control.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platterkit/platter-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		pitch      = flag.Float64("pitch", 1.0, "playback-rate multiplier")
		midiPort   = flag.String("midi", "", "Dicer MIDI input port (substring match; empty = no controller)")
		duration   = flag.Duration("duration", 0, "stop after this long (0 = play to end of track)")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] track.wav|track.mp3\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(log, flag.Arg(0), *sampleRate, *pitch, *midiPort, *duration); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, path string, sampleRate int, pitch float64, midiPort string, duration time.Duration) error {
	tr, err := platter.LoadTrack(path)
	if err != nil {
		return fmt.Errorf("load track: %w", err)
	}

	deck, err := platter.NewDeck(sampleRate, tr)
	if err != nil {
		tr.Release()
		return fmt.Errorf("deck: %w", err)
	}
	defer deck.Close()
	deck.SetNominalPitch(pitch)
	log.Info("track loaded",
		"path", path,
		"rate", tr.Rate(),
		"length", (time.Duration(float64(tr.Length())/float64(tr.Rate())*float64(time.Second))).Round(time.Millisecond),
	)

	motorStop := make(chan struct{})
	motor := platter.NewMotor(deck)
	go motor.Run(motorStop)
	defer close(motorStop)

	rig := platter.NewRig(platter.WithLogger(log))
	if midiPort != "" {
		dc, err := platter.OpenDicer(midiPort)
		if err != nil {
			return fmt.Errorf("dicer: %w", err)
		}
		if err := dc.AddDeck(deck); err != nil {
			dc.Close()
			return fmt.Errorf("dicer: %w", err)
		}
		rig.AddController(dc)
		log.Info("dicer attached", "port", dc.Port())
	}
	if err := rig.Start(); err != nil {
		return fmt.Errorf("rig: %w", err)
	}
	defer rig.Stop()

	out, err := platter.NewOutput(sampleRate, deck)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer out.Stop()
	out.Play()
	log.Info("playing", "pitch", pitch)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-sig:
			log.Info("interrupted")
			return nil
		case <-timeout:
			return nil
		case <-tick.C:
			if duration == 0 && deck.Player().Remain() <= 0 {
				log.Info("end of track")
				return nil
			}
		}
	}
}
