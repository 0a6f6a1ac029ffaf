// Package bank implements a stereo multi-tap delay network with shared
// feedback, driven once per buffer by a real-time audio callback.
//
// A [Bank] owns one delay line per tap and channel. Every sample each tap
// is read, its output is added to the wet bus with a fixed per-tap weight,
// and the dry input plus feedback-scaled tap output is written back. In
// [Reverse] mode the taps are chained instead: tap 0 records the dry
// input, tap i records the reversed output of tap i-1, and each tap adds
// feedback from its own forward-feedback read.
//
// Parameters change only through [Bank.Submit], which pushes a
// [control.Event] into the bank's SPSC queue. Process drains the queue at
// the start of every buffer and applies the events in push order, so when
// several events address the same parameter the last one wins.
//
// Process never blocks, allocates or takes a lock. Everything it needs is
// allocated by [New].
package bank
