package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(2048))
	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}
	if cfg.BlockSize != 2048 {
		t.Fatalf("block size = %d, want 2048", cfg.BlockSize)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), nil)
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestBlockDuration(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(48000), WithBlockSize(480))
	if got := cfg.BlockDuration(); got != 0.01 {
		t.Fatalf("BlockDuration = %v, want 0.01", got)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultProcessorConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if err := (ProcessorConfig{SampleRate: 48000}).Validate(); err == nil {
		t.Fatal("expected error for zero block size")
	}
	if err := (ProcessorConfig{BlockSize: 64}).Validate(); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}
