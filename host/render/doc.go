// Package render is an offline host for the delay bank.
//
// It decodes an audio file to stereo, feeds it through a [bank.Bank] on an
// audio goroutine while a control goroutine delivers preset automation
// through a [control.Pump], and writes the result as a dithered PCM WAV
// file. Automation lands on its exact frame: the audio loop splits blocks
// at event positions and waits at each block boundary until the control
// side has submitted the events due there, so renders are reproducible.
package render
