// Package control carries parameter changes from a control goroutine into
// the real-time audio callback.
//
// A control goroutine (see [Pump]) turns already-decoded control messages
// into [Event] values and pushes them into a [Queue]. Once per buffer the
// audio callback drains the queue with TryPop and applies each event in
// push order.
//
// The queue is single-producer/single-consumer: exactly one goroutine may
// call TryPush and exactly one other goroutine may call TryPop. This is a
// caller contract and is not checked. Under that discipline both ends are
// wait-free, allocation-free and never take a lock. A full queue rejects
// the event; dropping under burst load is expected, not an error.
package control
