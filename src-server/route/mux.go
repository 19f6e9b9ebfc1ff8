package route

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"syllabical/src-server/utils"
)

// NewMux wires every HTTP route. gatherer backs /metrics.
func NewMux(as *utils.AppState, gatherer prometheus.Gatherer) http.Handler {
	muxer := http.NewServeMux()
	muxer.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	muxer.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"uptime": as.GetUptime().String(),
		})
	})
	Parse(muxer, as)
	Calendar(muxer, as)
	Ical(muxer, as)
	return LogMiddleware(muxer)
}
