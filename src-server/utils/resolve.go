package utils

import (
	"time"

	"syllabical/src-server/resolver"
)

// Resolve runs the resolver with the configured defaults and reports the
// latency and line counts to the metric collectors.
func (as *AppState) Resolve(in resolver.Input) []resolver.ResolvedEvent {
	start := time.Now()
	events, stats := resolver.ResolveInput(as.Extractor, in, as.Now(), as.Config.ResolverDefaults())
	Send(as.MetricChans.ResolveLatency, float64(time.Since(start).Microseconds()))
	Send(as.MetricChans.ResolveStats, stats)
	return events
}

// Measure times f and reports the latency in microseconds on ch.
func Measure(ch chan float64, f func() error) error {
	start := time.Now()
	err := f()
	Send(ch, float64(time.Since(start).Microseconds()))
	return err
}
