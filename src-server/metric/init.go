// Package metric exposes the service's prometheus metrics. Request paths
// push samples on the channels in utils.Metric; the collectors started by
// Init drain them until the context is cancelled.
package metric

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"syllabical/src-server/model"
	"syllabical/src-server/resolver"
	"syllabical/src-server/utils"
)

func resolveCounters(ctx context.Context, reg prometheus.Registerer, ch <-chan resolver.Stats) {
	lines := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syllabical_lines_total",
		Help: "Lines seen by the resolver, by outcome",
	}, []string{"stage"}), "syllabical_lines_total")
	events := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syllabical_events_total",
		Help: "Events emitted after deduplication",
	}), "syllabical_events_total")
	requests := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syllabical_resolve_requests_total",
		Help: "Texts passed to the resolver",
	}), "syllabical_resolve_requests_total")

	go func() {
		for {
			select {
			case <-ctx.Done():
				reg.Unregister(lines)
				reg.Unregister(events)
				reg.Unregister(requests)
				return
			case stats := <-ch:
				requests.Inc()
				lines.WithLabelValues("seen").Add(float64(stats.Lines))
				lines.WithLabelValues("filtered").Add(float64(stats.Filtered))
				lines.WithLabelValues("resolved").Add(float64(stats.Resolved))
				events.Add(float64(stats.Events))
			}
		}
	}()
}

// databaseProbe times an empty read.
func databaseProbe(as *utils.AppState) func(context.Context) (time.Duration, error) {
	return func(ctx context.Context) (time.Duration, error) {
		start := time.Now()
		if _, err := as.BunDB.NewSelect().
			Model((*model.Calendar)(nil)).
			Where("id = ?", "").
			Exists(ctx); err != nil {
			return 0, err
		}
		return time.Since(start), nil
	}
}

// Init registers every collector with reg and starts feeding them.
func Init(ctx context.Context, as *utils.AppState, reg prometheus.Registerer) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := tickerInterval * 2

	resolveCounters(ctx, reg, as.MetricChans.ResolveStats)
	latencyGauge(ctx, reg,
		"syllabical_resolve_microsec",
		"The latency of resolving one text in microseconds",
		as.MetricChans.ResolveLatency, clearTickerInterval)
	latencyGauge(ctx, reg,
		"syllabical_database_read_microsec",
		"The latency of a database read in microseconds",
		as.MetricChans.DatabaseRead, clearTickerInterval)
	latencyGauge(ctx, reg,
		"syllabical_database_write_microsec",
		"The latency of a database write in microseconds",
		as.MetricChans.DatabaseWrite, clearTickerInterval)
	probeGauge(ctx, reg,
		"syllabical_database_empty_read_microsec",
		"The latency of an empty database read in microseconds",
		tickerInterval, databaseProbe(as))

	if as.DgSession != nil {
		latencyGauge(ctx, reg,
			"syllabical_discord_send_message_microsec",
			"The latency of a discord message send in microseconds",
			as.MetricChans.DiscordSendMessage, clearTickerInterval)
		probeGauge(ctx, reg,
			"syllabical_discord_heartbeat_latency_microsec",
			"The latency of a discord heartbeat in microseconds",
			tickerInterval, func(context.Context) (time.Duration, error) {
				return as.DgSession.HeartbeatLatency(), nil
			})
	}

	slog.Debug("metrics collectors started")
}
