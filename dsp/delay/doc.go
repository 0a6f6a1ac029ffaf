// Package delay provides the fixed-capacity circular storage used by the
// delay network and the two cursor structures built on it.
//
// [Buffer] is the arena: every index is taken modulo its capacity.
// [Line] pairs a write cursor with a smoothed read offset so that delay
// length changes glide instead of jumping. [ReverseLine] shares one
// Buffer between a forward write head and a backward read head to play
// the most recent window of audio time-reversed.
//
// Write, Read and the reverse reads are O(1), allocation-free and meant to
// be called only from the real-time thread. Construction, Reset and
// ClearBuffer allocate or touch the whole arena and must be sequenced by
// the host outside the audio callback.
package delay
