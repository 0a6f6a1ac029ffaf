package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type queueSubmitter struct {
	q *Queue
}

func (s queueSubmitter) Submit(ev Event) bool {
	return s.q.TryPush(ev)
}

func TestPumpForwardsUntilClosed(t *testing.T) {
	q := newTestQueue(t, 16)

	log, _ := logtest.NewNullLogger()
	src := make(chan Event, 8)
	p := NewPump(src, queueSubmitter{q}, WithLogger(log))

	for i := range 5 {
		src <- TapDelayMs(i, float64(10*i))
	}
	close(src)

	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if p.Submitted() != 5 || p.Dropped() != 0 {
		t.Fatalf("Submitted() = %d, Dropped() = %d; want 5, 0", p.Submitted(), p.Dropped())
	}

	var ev Event
	for i := range 5 {
		if want := TapDelayMs(i, float64(10*i)); !q.TryPop(&ev) || ev != want {
			t.Fatalf("event %d: got %+v, want %+v", i, ev, want)
		}
	}
}

func TestPumpCountsAndLogsDrops(t *testing.T) {
	q := newTestQueue(t, 2)

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	src := make(chan Event, 8)
	p := NewPump(src, queueSubmitter{q}, WithLogger(log))
	for i := range 5 {
		src <- Feedback(float64(i) / 10)
	}
	src <- Event{}
	close(src)

	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if p.Submitted() != 2 || p.Dropped() != 3 || q.Dropped() != 3 {
		t.Fatalf("Submitted() = %d, Dropped() = %d, queue drops %d; want 2, 3, 3",
			p.Submitted(), p.Dropped(), q.Dropped())
	}

	drops, warnings := 0, 0
	for _, e := range hook.AllEntries() {
		switch e.Level {
		case logrus.DebugLevel:
			if e.Message == "control queue full, event dropped" {
				drops++
			}
		case logrus.WarnLevel:
			warnings++
		}
	}

	if drops != 3 {
		t.Errorf("%d drop entries logged, want 3", drops)
	}

	if warnings != 1 {
		t.Errorf("invalid event reported %d times, want once", warnings)
	}
}

func TestPumpStopsOnCancel(t *testing.T) {
	q := newTestQueue(t, 4)

	log, _ := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPump(make(chan Event), queueSubmitter{q}, WithLogger(log))

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop after cancel")
	}
}
