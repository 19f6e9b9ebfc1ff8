package route

import (
	"log/slog"
	"net/http"

	"syllabical/src-server/ical"
	"syllabical/src-server/utils"
)

// Ical serves a saved calendar as a subscribable feed.
func Ical(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /ical/{calendar_id}", func(w http.ResponseWriter, r *http.Request) {
		calendarModel, events, ok := loadCalendar(w, r, as)
		if !ok {
			return
		}

		// stable UIDs so calendar clients update events in place on refresh
		uids := make([]string, 0, len(calendarModel.Events))
		for _, eventModel := range calendarModel.Events {
			uids = append(uids, eventModel.ID)
		}
		next := 0
		content, err := ical.Export(events, ical.ExportOptions{
			Name: calendarModel.Name,
			Now:  as.Now(),
			NewUID: func() string {
				uid := uids[next]
				next++
				return uid
			},
		})
		if err != nil {
			slog.Error("can't export calendar", "calendar_id", calendarModel.ID, "error", err)
			http.Error(w, "Can't export calendar", http.StatusInternalServerError)
			return
		}
		writeCalendar(w, calendarModel.Name, content, false)
	})
}
