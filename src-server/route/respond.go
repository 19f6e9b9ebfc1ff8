package route

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"syllabical/src-server/utils"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("can't write to response", "error", err)
	}
}

func writeCalendar(w http.ResponseWriter, name, content string, attachment bool) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, utils.CalendarFileName(name)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(content)); err != nil {
		slog.Warn("can't write to response", "error", err)
	}
}
