package utils

import "syllabical/src-server/resolver"

// Metric carries samples from the request paths to the collectors in the
// metric package. Sends never block: a sample is dropped when nobody reads.
type Metric struct {
	ResolveLatency     chan float64
	ResolveStats       chan resolver.Stats
	DatabaseRead       chan float64
	DatabaseWrite      chan float64
	DiscordSendMessage chan float64
}

const metricBuffer = 64

func NewMetric() *Metric {
	return &Metric{
		ResolveLatency:     make(chan float64, metricBuffer),
		ResolveStats:       make(chan resolver.Stats, metricBuffer),
		DatabaseRead:       make(chan float64, metricBuffer),
		DatabaseWrite:      make(chan float64, metricBuffer),
		DiscordSendMessage: make(chan float64, metricBuffer),
	}
}

func Send[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
