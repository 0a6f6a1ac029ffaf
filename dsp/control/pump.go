package control

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Submitter accepts events on behalf of the audio thread without
// blocking. A false return means the event was dropped.
type Submitter interface {
	Submit(ev Event) bool
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithLogger sets the logger used for drop reports.
func WithLogger(log logrus.FieldLogger) PumpOption {
	return func(p *Pump) {
		if log != nil {
			p.log = log
		}
	}
}

// Pump is the control-thread side of the parameter path. It forwards
// events from a channel into a Submitter, typically a bank whose Submit
// pushes into a [Queue]. The channel may block; the Submitter never does.
type Pump struct {
	src <-chan Event
	dst Submitter
	log logrus.FieldLogger

	submitted atomic.Uint64
	dropped   atomic.Uint64
}

// NewPump returns a pump reading src and writing dst.
func NewPump(src <-chan Event, dst Submitter, opts ...PumpOption) *Pump {
	p := &Pump{
		src: src,
		dst: dst,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run forwards events until src is closed or ctx is done. It returns nil
// when src is closed and ctx.Err() on cancellation.
func (p *Pump) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-p.src:
			if !ok {
				p.log.WithFields(logrus.Fields{
					"function":  "Pump.Run",
					"submitted": p.submitted.Load(),
					"dropped":   p.dropped.Load(),
				}).Debug("control source closed")
				return nil
			}
			p.forward(ev)
		}
	}
}

func (p *Pump) forward(ev Event) {
	if !ev.Param.Valid() {
		p.log.WithFields(logrus.Fields{
			"function": "Pump.forward",
			"event":    ev.String(),
		}).Warn("ignoring event with invalid parameter")
		return
	}
	if p.dst.Submit(ev) {
		p.submitted.Add(1)
		return
	}
	n := p.dropped.Add(1)
	p.log.WithFields(logrus.Fields{
		"function": "Pump.forward",
		"event":    ev.String(),
		"dropped":  n,
	}).Debug("control queue full, event dropped")
}

// Submitted returns how many events the Submitter accepted.
func (p *Pump) Submitted() uint64 {
	return p.submitted.Load()
}

// Dropped returns how many events the Submitter rejected.
func (p *Pump) Dropped() uint64 {
	return p.dropped.Load()
}
