package control_test

import (
	"fmt"

	"github.com/cwbudde/algo-multidelay/dsp/control"
)

func ExampleQueue() {
	q, err := control.NewQueue(3)
	if err != nil {
		panic(err)
	}

	q.TryPush(control.Feedback(0.4))
	q.TryPush(control.TapDelayMs(1, 250))

	var ev control.Event
	for q.TryPop(&ev) {
		fmt.Println(ev)
	}
	fmt.Println(q.Cap())
	// Output:
	// feedback=0.4
	// tap_delay_ms[1]=250
	// 4
}
