// Command multidelay runs an audio file through a multi-tap feedback
// delay network, or prints the impulse response of one.
//
// Usage:
//
//	multidelay [flags] -in input.wav -out output.wav
//	multidelay [flags] -ir
//
// Settings come from an optional YAML preset; flags that are set on the
// command line override it.
//
// Examples:
//
//	multidelay -in voice.wav -out echo.wav
//	multidelay -preset cave.yaml -in drums.ogg -out cave.wav -tail 8s
//	multidelay -taps 4 -mode reverse -feedback 0.3 -in gtr.mp3 -out rev.wav
//	multidelay -preset cave.yaml -ir
//	multidelay -taps 16 -seed 9 -dump-preset
//	multidelay -preset cave.yaml -list-cc
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-multidelay/dsp/bank"
	"github.com/cwbudde/algo-multidelay/dsp/core"
	"github.com/cwbudde/algo-multidelay/dsp/dither"
	"github.com/cwbudde/algo-multidelay/host/preset"
	"github.com/cwbudde/algo-multidelay/host/render"
	"github.com/cwbudde/algo-multidelay/measure/ir"
	"github.com/cwbudde/algo-multidelay/measure/level"
	"github.com/sirupsen/logrus"
)

const defaultIRRate = 48000

type options struct {
	in, out    string
	presetPath string
	taps       int
	mode       string
	feedback   float64
	wet        float64
	seed       uint64
	tail       time.Duration
	block      int
	bits       int
	ditherName string
	shape      bool
	logLevel   string
	ir         bool
	irLength   time.Duration
	dump       bool
	listCC     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("multidelay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options

	fs.StringVar(&o.in, "in", "", "input audio file (wav, aiff, mp3, ogg)")
	fs.StringVar(&o.out, "out", "out.wav", "output WAV file")
	fs.StringVar(&o.presetPath, "preset", "", "YAML preset file")
	fs.IntVar(&o.taps, "taps", 0, "number of stereo taps")
	fs.StringVar(&o.mode, "mode", "", "tap topology: forward or reverse")
	fs.Float64Var(&o.feedback, "feedback", 0, "feedback coefficient")
	fs.Float64Var(&o.wet, "wet", 0, "wet bus gain")
	fs.Uint64Var(&o.seed, "seed", 0, "seed for random tap delays")
	fs.DurationVar(&o.tail, "tail", 5*time.Second, "silence appended so echoes ring out")
	fs.IntVar(&o.block, "block", 512, "frames per processing block")
	fs.IntVar(&o.bits, "bits", 16, "output bit depth (16, 24 or 32)")
	fs.StringVar(&o.ditherName, "dither", dither.DitherTriangular.String(), "output dither: none, rectangular or triangular")
	fs.BoolVar(&o.shape, "shape", false, "first-order noise shaping of the output dither")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&o.ir, "ir", false, "print impulse response analysis instead of rendering")
	fs.DurationVar(&o.irLength, "ir-length", 3*time.Second, "impulse response capture length")
	fs.BoolVar(&o.dump, "dump-preset", false, "print the effective preset as YAML and exit")
	fs.BoolVar(&o.listCC, "list-cc", false, "print the MIDI controller bindings used by cc automation and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: multidelay [flags] -in input -out output.wav\n")
		fmt.Fprintf(stderr, "       multidelay [flags] -ir\n\n")
		fmt.Fprintf(stderr, "Runs audio through a multi-tap feedback delay network.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  multidelay -in voice.wav -out echo.wav\n")
		fmt.Fprintf(stderr, "  multidelay -preset cave.yaml -ir\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	lvl, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}

	log.SetLevel(lvl)

	p, err := loadPreset(fs, o)
	if err != nil {
		return err
	}

	switch {
	case o.dump:
		data, err := p.Marshal()
		if err != nil {
			return err
		}

		_, err = stdout.Write(data)

		return err
	case o.listCC:
		return printControllers(stdout, p)
	case o.ir:
		return printIR(stdout, p, o, log)
	case o.in == "":
		fs.Usage()
		return errors.New("-in is required unless -ir, -list-cc or -dump-preset is given")
	default:
		return renderFile(ctx, stdout, p, o, log)
	}
}

// loadPreset reads the preset file, if any, and applies the flags the
// user set explicitly.
func loadPreset(fs *flag.FlagSet, o options) (preset.Preset, error) {
	p := preset.Default()

	if o.presetPath != "" {
		var err error
		if p, err = preset.Load(o.presetPath); err != nil {
			return preset.Preset{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "taps":
			p.Taps = o.taps
			if len(p.Delays.Ms) != o.taps {
				p.Delays.Ms = nil
			}
		case "mode":
			p.Mode = o.mode
		case "feedback":
			p.Feedback = o.feedback
		case "wet":
			p.WetGain = o.wet
		case "seed":
			p.Delays.Seed = o.seed
			p.Delays.Ms = nil
		}
	})

	if err := p.Validate(); err != nil {
		return preset.Preset{}, err
	}

	return p, nil
}

func renderFile(ctx context.Context, stdout io.Writer, p preset.Preset, o options, log logrus.FieldLogger) error {
	dt, err := dither.ParseDitherType(o.ditherName)
	if err != nil {
		return err
	}

	in, err := render.DecodeFile(o.in)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"path":        o.in,
		"sample_rate": in.SampleRate,
		"duration":    in.Duration().String(),
	}).Info("decoded input")

	if p.SampleRate > 0 && p.SampleRate != float64(in.SampleRate) {
		log.WithFields(logrus.Fields{
			"preset_rate": p.SampleRate,
			"input_rate":  in.SampleRate,
		}).Warn("preset sample rate ignored, using the input rate")
	}

	p.SampleRate = float64(in.SampleRate)

	b, err := newBank(p, float64(in.SampleRate), log)
	if err != nil {
		return err
	}

	schedule, err := p.Schedule(float64(in.SampleRate))
	if err != nil {
		return err
	}

	res, err := render.Render(ctx, b, in, schedule,
		render.WithBlockSize(o.block),
		render.WithTail(o.tail),
		render.WithLogger(log))
	if err != nil {
		return err
	}

	qopts := []dither.Option{dither.WithBitDepth(o.bits), dither.WithDitherType(dt)}
	if o.shape {
		qopts = append(qopts, dither.WithErrorFeedback([]float64{1}))
	}

	clipped, err := render.WriteFile(o.out, res.Output, qopts...)
	if err != nil {
		return err
	}

	if clipped > 0 {
		log.WithFields(logrus.Fields{"clipped": clipped}).Warn("output clipped")
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Output\t%s\n", o.out)
	fmt.Fprintf(tw, "Duration\t%s\n", res.Output.Duration().Round(time.Millisecond))
	fmt.Fprintf(tw, "Blocks\t%d\n", res.Blocks)
	fmt.Fprintf(tw, "Events\t%d submitted, %d dropped, %d past end\n", res.Submitted, res.Dropped, res.Unsent)
	fmt.Fprintf(tw, "Input peak/RMS\t%s\n", levels(res.InputLeft, res.InputRight))
	fmt.Fprintf(tw, "Output peak/RMS\t%s\n", levels(res.OutputLeft, res.OutputRight))
	fmt.Fprintf(tw, "Clipped samples\t%d\n", clipped)

	return tw.Flush()
}

func levels(l, r level.Level) string {
	return fmt.Sprintf("L %s / %s dBFS, R %s / %s dBFS", dbString(l.PeakDB()), dbString(l.RMSDB()), dbString(r.PeakDB()), dbString(r.RMSDB()))
}

func dbString(db float64) string {
	if db < -200 {
		return "-inf"
	}

	return fmt.Sprintf("%.1f", db)
}

func newBank(p preset.Preset, sampleRate float64, log logrus.FieldLogger) (*bank.Bank, error) {
	opts, err := p.BankOptions(sampleRate, log)
	if err != nil {
		return nil, err
	}

	return bank.New(opts...)
}

func printControllers(stdout io.Writer, p preset.Preset) error {
	m, err := p.CCMap()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "CC\tParameter\tTap\tRange\n")

	for _, cc := range m.Controllers() {
		b, _ := m.Binding(cc)

		tap := "-"
		if b.Param.PerTap() {
			tap = fmt.Sprint(b.Tap)
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%g..%g\n", cc, b.Param, tap, b.Min, b.Max)
	}

	return tw.Flush()
}

func printIR(stdout io.Writer, p preset.Preset, o options, log logrus.FieldLogger) error {
	rate := p.SampleRate
	if rate <= 0 {
		rate = defaultIRRate
	}

	b, err := newBank(p, rate, log)
	if err != nil {
		return err
	}

	length := int(o.irLength.Seconds() * rate)

	resp, err := ir.Capture(b, length, o.block)
	if err != nil {
		return err
	}

	an := ir.NewAnalyzer(rate)

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mode\t%s\n", b.Mode())
	fmt.Fprintf(tw, "Taps\t%d\n", b.Taps())
	fmt.Fprintf(tw, "Sample rate\t%g Hz\n", rate)
	fmt.Fprintf(tw, "Feedback\t%g\n", b.Feedback())

	delays := make([]string, b.Taps())
	for i := range delays {
		delays[i] = fmt.Sprintf("%.1f", core.SamplesToMs(b.TapDelay(i), rate))
	}

	fmt.Fprintf(tw, "Tap delays (ms)\t%s\n", strings.Join(delays, " "))

	for _, ch := range []struct {
		name string
		data []float64
	}{{"Left", resp.Left}, {"Right", resp.Right}} {
		m, err := an.Analyze(ch.data)
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%s echoes\t%d\n", ch.name, m.Arrivals)

		if m.FirstArrival >= 0 {
			fmt.Fprintf(tw, "%s first echo\t%.1f ms\n", ch.name, core.SamplesToMs(float64(m.FirstArrival), rate))
		}

		fmt.Fprintf(tw, "%s decay (T60)\t%s\n", ch.name, seconds(m.DecayTime))
		fmt.Fprintf(tw, "%s early decay\t%s\n", ch.name, seconds(m.EarlyDecay))
		fmt.Fprintf(tw, "%s center time\t%s\n", ch.name, seconds(m.CenterTime))
	}

	if b.Mode() == bank.Forward {
		longest := 0.0
		for i := range b.Taps() {
			longest = max(longest, b.TapDelay(i))
		}

		fmt.Fprintf(tw, "Longest loop T60\t%s\n", seconds(ir.ExpectedDecayTime(longest, b.Feedback(), rate)))
	}

	return tw.Flush()
}

func seconds(s float64) string {
	if s == 0 {
		return "n/a"
	}

	return fmt.Sprintf("%.3f s", s)
}
