package metric

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg, reusing the collector already registered under the
// same name when there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		slog.Error("can't register metric", "metric", name, "error", err)
		return c
	}
	slog.Debug("metric registered", "metric", name)
	return c
}

// latencyGauge shows the latest sample from ch and falls back to 0 once no
// sample arrived for clearInterval.
func latencyGauge(ctx context.Context, reg prometheus.Registerer, name, help string, ch <-chan float64, clearInterval time.Duration) {
	gauge := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}), name)
	gauge.Set(0)

	go func() {
		clearTicker := time.NewTicker(clearInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				if !reg.Unregister(gauge) {
					slog.Warn("metric not registered", "metric", name)
				}
				return
			case latency := <-ch:
				gauge.Set(latency)
				clearTicker.Reset(clearInterval)
			case <-clearTicker.C:
				gauge.Set(0)
			}
		}
	}()
}

// probeGauge samples probe every interval.
func probeGauge(ctx context.Context, reg prometheus.Registerer, name, help string, interval time.Duration, probe func(context.Context) (time.Duration, error)) {
	gauge := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}), name)
	gauge.Set(0)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if !reg.Unregister(gauge) {
					slog.Warn("metric not registered", "metric", name)
				}
				return
			case <-ticker.C:
				latency, err := probe(ctx)
				if err != nil {
					slog.Error("can't probe", "metric", name, "error", err)
					continue
				}
				gauge.Set(float64(latency.Microseconds()))
			}
		}
	}()
}
