package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-multidelay/dsp/dither"
	"github.com/cwbudde/algo-multidelay/host/preset"
	"github.com/cwbudde/algo-multidelay/host/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPreset = `
sample_rate: 1000
taps: 2
feedback: 0.5
tap_weight: 1
smoothing_ms: 0
max_delay_ms: 100
delays: {ms: [10, 25]}
automation:
  - {at_ms: 40, param: feedback, value: 0}
  - {at_ms: 60, cc: 1, value: 0}
controllers:
  - {cc: 74, param: tap_delay_ms, tap: 1, min: 10, max: 100}
  - {cc: 7, param: none}
`

func writePreset(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPreset), 0o600))

	return path
}

func TestDumpPresetAppliesFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-dump-preset", "-taps", "3", "-seed", "5", "-mode", "reverse"}, &stdout, &stderr)
	require.NoError(t, err)

	p, err := preset.Parse(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, p.Taps)
	assert.Equal(t, uint64(5), p.Delays.Seed)
	assert.Equal(t, "reverse", p.Mode)
}

func TestTapsFlagDropsMismatchedDelays(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-preset", writePreset(t), "-taps", "4", "-dump-preset"}, &stdout, &stderr)
	require.NoError(t, err)

	p, err := preset.Parse(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, p.Taps)
	assert.Empty(t, p.Delays.Ms)
}

func TestIRReport(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-preset", writePreset(t), "-ir", "-ir-length", "500ms", "-log-level", "error"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Tap delays (ms)")
	assert.Contains(t, out, "10.0 25.0")
	assert.Contains(t, out, "Left first echo")
	assert.Contains(t, out, "10.0 ms")
	assert.Contains(t, out, "Longest loop T60")
}

func TestListControllers(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-preset", writePreset(t), "-list-cc"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "feedback")
	assert.Contains(t, out, "0..0.95")
	assert.Contains(t, out, "tap_delay_norm")
	assert.Contains(t, out, "74")
	assert.Contains(t, out, "tap_delay_ms")
	assert.Contains(t, out, "10..100")
	assert.NotContains(t, out, "wet_gain")
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")

	in := render.NewAudio(1000, 100)
	in.Left[0] = 0.5
	in.Right[0] = 0.5

	_, err := render.WriteFile(inPath, in, dither.WithDitherType(dither.DitherNone))
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer

	err = run(context.Background(), []string{
		"-preset", writePreset(t),
		"-in", inPath,
		"-out", outPath,
		"-tail", "50ms",
		"-dither", "none",
		"-log-level", "warn",
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "2 submitted, 0 dropped, 0 past end")

	got, err := render.DecodeFile(outPath)
	require.NoError(t, err)
	require.Equal(t, 150, got.Frames())
	assert.InDelta(t, 0.5, got.Left[10], 1e-3, "first echo of the 10 ms tap")
	assert.InDelta(t, 0.5, got.Left[25], 1e-3, "first echo of the 25 ms tap")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{}},
		{"bad mode", []string{"-mode", "sideways", "-ir"}},
		{"bad level", []string{"-log-level", "loud", "-ir"}},
		{"missing preset", []string{"-preset", "/nonexistent/p.yaml", "-ir"}},
		{"missing input", []string{"-in", "/nonexistent/in.wav"}},
		{"unknown flag", []string{"-frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Error(t, err)
		})
	}
}

func TestHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-h"}, &stdout, &stderr)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "Usage: multidelay")
}
