package bank

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/cwbudde/algo-multidelay/dsp/control"
	"github.com/cwbudde/algo-multidelay/dsp/core"
	"github.com/cwbudde/algo-multidelay/dsp/delay"
	"github.com/cwbudde/algo-multidelay/dsp/smooth"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"
)

type forwardTap struct {
	left, right *delay.Line
	weight      float64
}

type reverseTap struct {
	left, right *delay.ReverseLine
	weight      float64
}

// Bank is a stereo multi-tap delay network. Process and the accessors
// other than Peak and Applied belong to the audio thread; Submit belongs
// to the control thread.
type Bank struct {
	sampleRate float64
	mode       Mode
	maxDelay   float64

	forward []forwardTap
	reverse []reverseTap

	feedback float64
	wetGain  float64

	queue *control.Queue
	ev    control.Event

	wetL, wetR []float64

	peak    atomic.Uint64
	applied atomic.Uint64
}

// New allocates a bank and all of its delay storage.
func New(opts ...Option) (*Bank, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.tapWeights != nil && len(cfg.tapWeights) != cfg.taps {
		return nil, fmt.Errorf("bank: %d tap weights for %d taps", len(cfg.tapWeights), cfg.taps)
	}

	if cfg.delaysMs != nil && len(cfg.delaysMs) != cfg.taps {
		return nil, fmt.Errorf("bank: %d tap delays for %d taps", len(cfg.delaysMs), cfg.taps)
	}

	queue, err := control.NewQueue(cfg.queueCapacity)
	if err != nil {
		return nil, fmt.Errorf("bank: %w", err)
	}

	maxSamples := max(1, int(math.Ceil(core.MsToSamples(cfg.maxDelayMs, cfg.sampleRate))))

	b := &Bank{
		sampleRate: cfg.sampleRate,
		mode:       cfg.mode,
		maxDelay:   float64(maxSamples),
		feedback:   cfg.feedback,
		wetGain:    cfg.wetGain,
		queue:      queue,
		wetL:       make([]float64, cfg.maxBlockSize),
		wetR:       make([]float64, cfg.maxBlockSize),
	}

	delays := initialDelaysMs(cfg)

	switch cfg.mode {
	case Reverse:
		err = b.buildReverse(cfg, delays, 2*maxSamples)
	default:
		err = b.buildForward(cfg, delays, maxSamples+1)
	}

	if err != nil {
		return nil, err
	}

	cfg.log.WithFields(logrus.Fields{
		"function":       "bank.New",
		"taps":           cfg.taps,
		"mode":           cfg.mode.String(),
		"sample_rate":    cfg.sampleRate,
		"max_delay_ms":   cfg.maxDelayMs,
		"feedback":       cfg.feedback,
		"queue_capacity": queue.Cap(),
		"buffer_bytes":   b.bufferBytes(),
	}).Info("delay bank ready")

	return b, nil
}

func initialDelaysMs(cfg config) []float64 {
	if cfg.delaysMs != nil {
		return cfg.delaysMs
	}

	r := cfg.random
	if r == nil {
		lo := min(defaultMinDelayMs, cfg.maxDelayMs)
		r = &randomDelays{seed: defaultRandomSeed, minMs: lo, maxMs: cfg.maxDelayMs}
	}

	rng := rand.New(rand.NewPCG(r.seed, 0))
	out := make([]float64, cfg.taps)
	for i := range out {
		out[i] = r.minMs + rng.Float64()*(r.maxMs-r.minMs)
	}

	return out
}

func tapWeight(cfg config, i int) float64 {
	if cfg.tapWeights != nil {
		return cfg.tapWeights[i]
	}

	return cfg.tapWeight
}

func (b *Bank) buildForward(cfg config, delaysMs []float64, capacity int) error {
	lineOpts := []delay.LineOption{
		delay.WithInterpolation(cfg.interp),
		delay.WithSmoothing(smooth.Coefficient(cfg.smoothingMs, cfg.sampleRate)),
		delay.WithRetuneThreshold(cfg.retuneThreshold),
	}

	b.forward = make([]forwardTap, cfg.taps)
	for i := range b.forward {
		d := core.MsToSamples(delaysMs[i], cfg.sampleRate)

		left, err := delay.NewLine(capacity, d, lineOpts...)
		if err != nil {
			return fmt.Errorf("bank: tap %d: %w", i, err)
		}

		right, err := delay.NewLine(capacity, d, lineOpts...)
		if err != nil {
			return fmt.Errorf("bank: tap %d: %w", i, err)
		}

		b.forward[i] = forwardTap{left: left, right: right, weight: tapWeight(cfg, i)}
	}

	return nil
}

func (b *Bank) buildReverse(cfg config, delaysMs []float64, capacity int) error {
	revOpts := []delay.ReverseOption{delay.WithReverseThreshold(cfg.reverseThreshold)}

	b.reverse = make([]reverseTap, cfg.taps)
	for i := range b.reverse {
		d := core.MsToSamples(delaysMs[i], cfg.sampleRate)

		left, err := delay.NewReverseLine(capacity, d, revOpts...)
		if err != nil {
			return fmt.Errorf("bank: tap %d: %w", i, err)
		}

		right, err := delay.NewReverseLine(capacity, d, revOpts...)
		if err != nil {
			return fmt.Errorf("bank: tap %d: %w", i, err)
		}

		b.reverse[i] = reverseTap{left: left, right: right, weight: tapWeight(cfg, i)}
	}

	return nil
}

func (b *Bank) bufferBytes() int {
	total := 0
	for _, t := range b.forward {
		total += t.left.Capacity() + t.right.Capacity()
	}

	for _, t := range b.reverse {
		total += t.left.Capacity() + t.right.Capacity()
	}

	return total * 8
}

// Submit queues a parameter change for the next buffer. It never blocks
// and returns false when the event was dropped, either because the queue
// is full or because the event is malformed. Control thread only.
func (b *Bank) Submit(ev control.Event) bool {
	if !ev.Param.Valid() {
		return false
	}

	return b.queue.TryPush(ev)
}

// Dropped returns how many submitted events were rejected by a full queue.
func (b *Bank) Dropped() uint64 {
	return b.queue.Dropped()
}

// Applied returns how many events the audio thread has applied.
func (b *Bank) Applied() uint64 {
	return b.applied.Load()
}

// Process renders one buffer. The frame count is the shortest of the four
// slices. outL and outR may alias inL and inR respectively. Audio thread
// only.
func (b *Bank) Process(inL, inR, outL, outR []float64) {
	b.drain()

	n := min(len(inL), len(inR), len(outL), len(outR))
	peak := 0.0

	for start := 0; start < n; start += len(b.wetL) {
		end := min(start+len(b.wetL), n)
		wetL := b.wetL[:end-start]
		wetR := b.wetR[:end-start]

		if b.mode == Reverse {
			b.renderReverse(inL[start:end], inR[start:end], wetL, wetR)
		} else {
			b.renderForward(inL[start:end], inR[start:end], wetL, wetR)
		}

		vecmath.ScaleBlock(wetL, wetL, b.wetGain)
		vecmath.ScaleBlock(wetR, wetR, b.wetGain)

		dstL := outL[start:end]
		dstR := outR[start:end]
		copy(dstL, inL[start:end])
		copy(dstR, inR[start:end])
		vecmath.AddBlockInPlace(dstL, wetL)
		vecmath.AddBlockInPlace(dstR, wetR)

		peak = max(peak, peakAbs(dstL), peakAbs(dstR))
	}

	b.peak.Store(math.Float64bits(peak))
}

func (b *Bank) renderForward(inL, inR, wetL, wetR []float64) {
	fb := b.feedback

	for i := range wetL {
		dryL, dryR := inL[i], inR[i]
		sumL, sumR := 0.0, 0.0

		for t := range b.forward {
			tap := &b.forward[t]
			tap.left.Advance()
			tap.right.Advance()

			dl := tap.left.Read()
			dr := tap.right.Read()
			sumL += tap.weight * dl
			sumR += tap.weight * dr

			tap.left.Write(core.FlushDenormals(dryL + fb*dl))
			tap.right.Write(core.FlushDenormals(dryR + fb*dr))
		}

		wetL[i] = sumL
		wetR[i] = sumR
	}
}

func (b *Bank) renderReverse(inL, inR, wetL, wetR []float64) {
	fb := b.feedback

	for i := range wetL {
		feedL, feedR := inL[i], inR[i]
		sumL, sumR := 0.0, 0.0

		for t := range b.reverse {
			tap := &b.reverse[t]

			rl := tap.left.ReadReverse()
			rr := tap.right.ReadReverse()
			sumL += tap.weight * rl
			sumR += tap.weight * rr

			fl := tap.left.ReadForwardFeedback()
			fr := tap.right.ReadForwardFeedback()
			tap.left.Write(core.FlushDenormals(feedL + fb*fl))
			tap.right.Write(core.FlushDenormals(feedR + fb*fr))

			feedL, feedR = rl, rr
		}

		wetL[i] = sumL
		wetR[i] = sumR
	}
}

func peakAbs(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = max(p, math.Abs(v))
	}

	return p
}

func (b *Bank) drain() {
	for b.queue.TryPop(&b.ev) {
		if b.apply(b.ev) {
			b.applied.Add(1)
		}
	}
}

func (b *Bank) apply(ev control.Event) bool {
	if !finite(ev.Value) {
		return false
	}

	switch ev.Param {
	case control.ParamFeedback:
		b.feedback = ev.Value
	case control.ParamWetGain:
		b.wetGain = ev.Value
	case control.ParamTapDelayMs:
		if ev.Tap < 0 || ev.Tap >= b.Taps() {
			return false
		}

		b.setTapDelay(ev.Tap, core.MsToSamples(ev.Value, b.sampleRate))
	case control.ParamTapDelayNorm:
		if ev.Tap < 0 || ev.Tap >= b.Taps() {
			return false
		}

		b.setTapDelay(ev.Tap, b.normToSamples(ev.Value))
	case control.ParamAllTapsDelayMs:
		d := core.MsToSamples(ev.Value, b.sampleRate)
		for t := 0; t < b.Taps(); t++ {
			b.setTapDelay(t, d)
		}
	default:
		return false
	}

	return true
}

func (b *Bank) normToSamples(v float64) float64 {
	v = core.Clamp(v, 0, 1)
	return 1 + v*(b.maxDelay-1)
}

func (b *Bank) setTapDelay(i int, samples float64) {
	if b.mode == Reverse {
		b.reverse[i].left.SetDelayTime(samples)
		b.reverse[i].right.SetDelayTime(samples)

		return
	}

	b.forward[i].left.SetDelayTarget(samples)
	b.forward[i].right.SetDelayTarget(samples)
}

// Taps returns the number of stereo taps.
func (b *Bank) Taps() int {
	if b.mode == Reverse {
		return len(b.reverse)
	}

	return len(b.forward)
}

// Mode returns the tap topology.
func (b *Bank) Mode() Mode { return b.mode }

// SampleRate returns the sample rate in Hz.
func (b *Bank) SampleRate() float64 { return b.sampleRate }

// MaxDelay returns the longest reachable delay in samples.
func (b *Bank) MaxDelay() float64 { return b.maxDelay }

// Feedback returns the shared feedback coefficient in effect.
func (b *Bank) Feedback() float64 { return b.feedback }

// WetGain returns the wet bus gain in effect.
func (b *Bank) WetGain() float64 { return b.wetGain }

// TapWeight returns the wet-bus weight of tap i.
func (b *Bank) TapWeight(i int) float64 {
	if b.mode == Reverse {
		return b.reverse[i].weight
	}

	return b.forward[i].weight
}

// TapDelay returns the delay length of tap i in samples. For forward taps
// this is the smoothed length of the left line.
func (b *Bank) TapDelay(i int) float64 {
	if b.mode == Reverse {
		return b.reverse[i].left.Delay()
	}

	return b.forward[i].left.Delay()
}

// TapTarget returns the delay length tap i is moving toward, in samples.
// Reverse taps switch length at once, so target and delay agree.
func (b *Bank) TapTarget(i int) float64 {
	if b.mode == Reverse {
		return b.reverse[i].left.Delay()
	}

	return b.forward[i].left.Target()
}

// Peak returns the absolute peak of the most recent output buffer. Safe
// to call from any goroutine.
func (b *Bank) Peak() float64 {
	return math.Float64frombits(b.peak.Load())
}

// Clear silences every tap. Not real-time safe: the host must ensure
// Process is not running.
func (b *Bank) Clear() {
	for _, t := range b.forward {
		t.left.Reset()
		t.right.Reset()
	}

	for _, t := range b.reverse {
		t.left.Reset()
		t.right.Reset()
	}

	b.peak.Store(0)
}
