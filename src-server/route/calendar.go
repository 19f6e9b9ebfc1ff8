package route

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"syllabical/src-server/ical"
	"syllabical/src-server/model"
	"syllabical/src-server/resolver"
	"syllabical/src-server/utils"
)

type CalendarRespBody struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	CreatedAt string                   `json:"createdAt"`
	FeedURL   string                   `json:"feedUrl"`
	Events    []resolver.ResolvedEvent `json:"events"`
}

// feedURL is where the saved calendar can be subscribed to. HOSTNAME wins
// over the request's host.
func feedURL(as *utils.AppState, r *http.Request, id string) string {
	if hostname := as.Config.GetHostname(); hostname != "" {
		return fmt.Sprintf("https://%s/ical/%s", hostname, id)
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/ical/%s", scheme, r.Host, id)
}

func loadCalendar(w http.ResponseWriter, r *http.Request, as *utils.AppState) (*model.Calendar, []resolver.ResolvedEvent, bool) {
	var calendarModel *model.Calendar
	if err := utils.Measure(as.MetricChans.DatabaseRead, func() error {
		var err error
		calendarModel, err = model.GetCalendar(r.Context(), as.BunDB, r.PathValue("calendar_id"))
		return err
	}); err != nil {
		if errors.Is(err, model.ErrCalendarNotFound) {
			http.Error(w, "Calendar not found", http.StatusNotFound)
			return nil, nil, false
		}
		slog.Error("can't get calendar", "error", err)
		http.Error(w, "Can't get calendar", http.StatusInternalServerError)
		return nil, nil, false
	}
	events, err := calendarModel.ResolvedEvents(as.Config.GetLocation())
	if err != nil {
		slog.Error("can't read stored events", "calendar_id", calendarModel.ID, "error", err)
		http.Error(w, "Can't read stored events", http.StatusInternalServerError)
		return nil, nil, false
	}
	return calendarModel, events, true
}

// Calendar serves saved calendars: resolve and store, read back, delete.
func Calendar(muxer *http.ServeMux, as *utils.AppState) {
	type CreateCalendarReqBody struct {
		CalendarName string `json:"calendarName"`
	}

	toRespBody := func(r *http.Request, calendarModel *model.Calendar, events []resolver.ResolvedEvent) CalendarRespBody {
		return CalendarRespBody{
			ID:        calendarModel.ID,
			Name:      calendarModel.Name,
			CreatedAt: time.Unix(calendarModel.CreatedAt, 0).UTC().Format(time.RFC3339),
			FeedURL:   feedURL(as, r, calendarModel.ID),
			Events:    events,
		}
	}

	muxer.HandleFunc("POST /api/calendars", LimitBodyMiddleware(as.Config.GetMaxInputBytes(),
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody CreateCalendarReqBody
			input, ok := decodeInput(w, r, &reqBody)
			if !ok {
				return
			}

			events := as.Resolve(input)
			if len(events) == 0 {
				http.Error(w, "No events found in text", http.StatusUnprocessableEntity)
				return
			}

			var calendarModel *model.Calendar
			if err := utils.Measure(as.MetricChans.DatabaseWrite, func() error {
				var err error
				calendarModel, err = model.SaveCalendar(
					r.Context(),
					as.BunDB,
					utils.CalendarName(reqBody.CalendarName, ical.DefaultName),
					events,
					as.Now(),
				)
				return err
			}); err != nil {
				slog.Error("can't save calendar", "error", err)
				http.Error(w, "Can't save calendar", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, toRespBody(r, calendarModel, events))
		}))

	muxer.HandleFunc("GET /api/calendars/{calendar_id}", func(w http.ResponseWriter, r *http.Request) {
		calendarModel, events, ok := loadCalendar(w, r, as)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toRespBody(r, calendarModel, events))
	})

	muxer.HandleFunc("DELETE /api/calendars/{calendar_id}", func(w http.ResponseWriter, r *http.Request) {
		if err := utils.Measure(as.MetricChans.DatabaseWrite, func() error {
			return model.DeleteCalendar(r.Context(), as.BunDB, r.PathValue("calendar_id"))
		}); err != nil {
			if errors.Is(err, model.ErrCalendarNotFound) {
				http.Error(w, "Calendar not found", http.StatusNotFound)
				return
			}
			slog.Error("can't delete calendar", "error", err)
			http.Error(w, "Can't delete calendar", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
