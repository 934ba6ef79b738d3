package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/cbegin/onbeat-go"
	"github.com/cbegin/onbeat-go/internal/analysis"
	"github.com/cbegin/onbeat-go/internal/beat"
	"github.com/cbegin/onbeat-go/internal/event"
)

func main() {
	var (
		wavPath     = flag.String("file", "", "path to a WAV file")
		demo        = flag.Bool("demo", false, "scan a generated click track")
		bpm         = flag.Float64("bpm", 120, "tempo of the -demo click track")
		seconds     = flag.Float64("seconds", 8, "length of the -demo click track")
		writePath   = flag.String("write", "", "also write the -demo click track to this WAV file")
		frameSize   = flag.Int("frame-size", 1024, "analysis window in samples (power of two)")
		sampleRate  = flag.Int("sample-rate", 44100, "analysis sample rate")
		sensitivity = flag.Float64("sensitivity", 1.3, "flux ratio that counts as a beat")
		leadIn      = flag.Int64("lead-in", 50, "milliseconds added to each blit interval")
		skew        = flag.Int64("skew", 50, "milliseconds added to the on-time offset modulus")
		fps         = flag.Int("fps", 60, "simulated frame rate")
		stall       = flag.Duration("stall", 0, "stall the simulated frame loop once by this long")
		timeline    = flag.Bool("timeline", true, "print every simulated event")
		verbose     = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	onbeat.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	track, err := resolveTrack(*wavPath, *demo, *bpm, *seconds, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	if *demo && *writePath != "" {
		if err := os.WriteFile(*writePath, onbeat.EncodeWAV(track), 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *writePath)
	}

	p := analysis.DefaultParams()
	p.FrameSize = *frameSize
	p.SampleRate = *sampleRate
	p.Sensitivity = *sensitivity
	series, err := analysis.Analyze(track, p)
	if err != nil {
		log.Fatal(err)
	}

	th := beat.Thresholds(series)
	fmt.Printf("track:      %v at %d Hz\n", track.Duration().Round(time.Millisecond), track.SampleRate)
	fmt.Printf("frames:     %d x %v\n", series.Len(), series.FrameDuration)
	fmt.Printf("beats:      %d\n", series.BeatCount())
	fmt.Printf("thresholds: %.3f / %.3f\n", th[beat.Channel1], th[beat.Channel2])

	opts := onbeat.DefaultSimulateOptions()
	opts.LeadInMs = *leadIn
	opts.SkewMs = *skew
	if *fps > 0 {
		opts.FrameStep = time.Second / time.Duration(*fps)
	}
	if *stall > 0 {
		opts.Stalls = map[int]time.Duration{*fps: *stall}
	}
	events := onbeat.Simulate(series, opts)

	var columns [beat.NumColumns]int
	blits := 0
	for _, te := range events {
		ev := te.Event
		if ev.Kind != event.KindNewBlit {
			if *timeline {
				fmt.Printf("%10v  frame %5d  %v\n", te.At, te.Frame, ev.Kind)
			}
			continue
		}
		blits++
		var cols [2]beat.Column
		for c, s := range ev.Blit.Strengths {
			cols[c] = beat.Classify(c, s, th[c])
			columns[cols[c]]++
		}
		if *timeline {
			fmt.Printf("%10v  frame %5d  beat %5d  offset %4dms  %v %v\n",
				te.At, te.Frame, ev.Blit.Beat, ev.Blit.OffsetMs, cols[0], cols[1])
		}
	}
	fmt.Printf("blits:      %d (%d %d %d %d per column)\n", blits, columns[0], columns[1], columns[2], columns[3])
}

func resolveTrack(path string, demo bool, bpm, seconds float64, sampleRate int) (*analysis.Track, error) {
	if demo {
		return onbeat.ClickTrack(sampleRate, time.Duration(seconds*float64(time.Second)), bpm, 4), nil
	}
	if path == "" {
		return nil, fmt.Errorf("need -file or -demo")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return analysis.Decode(f)
}
