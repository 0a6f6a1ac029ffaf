package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cwbudde/algo-multidelay/dsp/bank"
	"github.com/cwbudde/algo-multidelay/dsp/control"
	"github.com/cwbudde/algo-multidelay/dsp/core"
	"github.com/cwbudde/algo-multidelay/host/preset"
	"github.com/cwbudde/algo-multidelay/measure/level"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type config struct {
	proc core.ProcessorConfig
	tail time.Duration
	log  logrus.FieldLogger
}

// Option configures Render.
type Option func(*config) error

// WithBlockSize sets the largest number of frames handed to the bank per
// call. Default 256.
func WithBlockSize(frames int) Option {
	return func(cfg *config) error {
		if frames < 1 {
			return fmt.Errorf("render: block size must be >= 1: %d", frames)
		}

		cfg.proc.BlockSize = frames

		return nil
	}
}

// WithTail appends silence after the input so echoes can ring out.
func WithTail(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("render: tail must be >= 0: %s", d)
		}

		cfg.tail = d

		return nil
	}
}

// WithLogger sets the logger for progress and drop reports.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if log == nil {
			return errors.New("render: logger must not be nil")
		}

		cfg.log = log

		return nil
	}
}

// Result describes a finished render.
type Result struct {
	Output *Audio
	Blocks int

	// Submitted and Dropped count automation events accepted and
	// rejected by the bank's control queue. Unsent counts events
	// scheduled past the end of the render.
	Submitted uint64
	Dropped   uint64
	Unsent    int
	Applied   uint64

	InputLeft, InputRight   level.Level
	OutputLeft, OutputRight level.Level
}

// Render processes in through b, applying schedule as control events on
// their frames. in is not modified. The bank must run at the input's
// sample rate.
func Render(ctx context.Context, b *bank.Bank, in *Audio, schedule []preset.TimedEvent, opts ...Option) (Result, error) {
	cfg := config{proc: core.DefaultProcessorConfig(), log: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return Result{}, err
		}
	}

	cfg.proc.SampleRate = float64(in.SampleRate)
	if err := cfg.proc.Validate(); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	if cfg.proc.SampleRate != b.SampleRate() {
		return Result{}, fmt.Errorf("%w: input %d Hz, bank %g Hz", ErrSampleRate, in.SampleRate, b.SampleRate())
	}

	tail := int(cfg.tail.Seconds() * float64(in.SampleRate))
	out := NewAudio(in.SampleRate, in.Frames()+tail)
	copy(out.Left, in.Left)
	copy(out.Right, in.Right)

	cues := make([]preset.TimedEvent, len(schedule))
	copy(cues, schedule)
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].Frame < cues[j].Frame })

	s := &session{
		bank:   b,
		out:    out,
		cues:   cues,
		block:  cfg.proc.BlockSize,
		log:    cfg.log,
		clock:  make(chan int),
		ready:  make(chan struct{}),
		events: make(chan control.Event),
		acks:   make(chan struct{}, len(cues)),
	}

	s.inL.Update(in.Left)
	s.inR.Update(in.Right)

	cfg.log.WithFields(logrus.Fields{
		"function":       "render.Render",
		"frames":         out.Frames(),
		"block_size":     cfg.proc.BlockSize,
		"block_deadline": time.Duration(cfg.proc.BlockDuration() * float64(time.Second)).String(),
		"cues":           len(cues),
	}).Debug("render started")

	pump := control.NewPump(s.events, ackSubmitter{dst: b, acks: s.acks}, control.WithLogger(cfg.log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.play(gctx) })
	g.Go(func() error { return s.sequence(gctx) })
	g.Go(func() error { return pump.Run(gctx) })

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	res := Result{
		Output:      out,
		Blocks:      s.blocks,
		Submitted:   pump.Submitted(),
		Dropped:     pump.Dropped(),
		Unsent:      s.unsent,
		Applied:     b.Applied(),
		InputLeft:   s.inL.Result(),
		InputRight:  s.inR.Result(),
		OutputLeft:  s.outL.Result(),
		OutputRight: s.outR.Result(),
	}

	entry := cfg.log.WithFields(logrus.Fields{
		"function":  "render.Render",
		"frames":    out.Frames(),
		"blocks":    res.Blocks,
		"submitted": res.Submitted,
		"dropped":   res.Dropped,
		"unsent":    res.Unsent,
		"peak_db":   max(res.OutputLeft.PeakDB(), res.OutputRight.PeakDB()),
	})

	if res.Dropped > 0 {
		entry.Warn("render finished with dropped control events")
	} else {
		entry.Info("render finished")
	}

	return res, nil
}

// session is the state shared by the goroutines of one render.
type session struct {
	bank  *bank.Bank
	out   *Audio
	cues  []preset.TimedEvent
	block int
	log   logrus.FieldLogger

	// clock carries the first frame of the next block from the audio
	// loop to the sequencer; ready releases the audio loop once the
	// events due at that frame are in the bank's queue.
	clock  chan int
	ready  chan struct{}
	events chan control.Event
	acks   chan struct{}

	blocks int
	unsent int

	inL, inR, outL, outR level.Meter
}

// play is the audio loop. It splits blocks at cue frames so every event
// takes effect on its own frame.
func (s *session) play(ctx context.Context) error {
	defer close(s.clock)

	total := s.out.Frames()
	next := 0

	for pos := 0; pos < total; {
		for next < len(s.cues) && s.cues[next].Frame <= pos {
			next++
		}

		end := min(pos+s.block, total)
		if next < len(s.cues) && s.cues[next].Frame < end {
			end = s.cues[next].Frame
		}

		select {
		case s.clock <- pos:
		case <-ctx.Done():
			return ctx.Err()
		}

		select {
		case <-s.ready:
		case <-ctx.Done():
			return ctx.Err()
		}

		l, r := s.out.Left[pos:end], s.out.Right[pos:end]
		s.bank.Process(l, r, l, r)
		s.outL.Update(l)
		s.outR.Update(r)
		s.blocks++

		pos = end
	}

	return nil
}

// sequence is the control side. For each block start it hands the due
// events to the pump and waits until the bank has seen all of them.
func (s *session) sequence(ctx context.Context) error {
	defer close(s.events)

	next := 0

	for {
		var (
			pos int
			ok  bool
		)

		select {
		case pos, ok = <-s.clock:
		case <-ctx.Done():
			return ctx.Err()
		}

		if !ok {
			s.unsent = len(s.cues) - next
			if s.unsent > 0 {
				s.log.WithFields(logrus.Fields{
					"function": "render.sequence",
					"unsent":   s.unsent,
				}).Debug("automation scheduled past the end of the render")
			}

			return nil
		}

		sent := 0

		for next < len(s.cues) && s.cues[next].Frame <= pos {
			ev := s.cues[next].Event
			next++

			if !ev.Param.Valid() {
				s.log.WithFields(logrus.Fields{
					"function": "render.sequence",
					"event":    ev.String(),
				}).Warn("skipping automation with invalid parameter")

				continue
			}

			select {
			case s.events <- ev:
				sent++
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for range sent {
			select {
			case <-s.acks:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case s.ready <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ackSubmitter reports every submission attempt back to the sequencer.
type ackSubmitter struct {
	dst  control.Submitter
	acks chan<- struct{}
}

func (a ackSubmitter) Submit(ev control.Event) bool {
	ok := a.dst.Submit(ev)
	a.acks <- struct{}{}

	return ok
}
