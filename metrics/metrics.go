// Package metrics defines the recorder contract used to count gateway events
// and observe verification latency.
package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
