package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"syllabical/src-server/ical"
	"syllabical/src-server/resolver"
	"syllabical/src-server/utils"
)

type EventsRespBody struct {
	Events []resolver.ResolvedEvent `json:"events"`
}

// decodeInput reads the resolver input from the request body, and the rest
// of the same JSON object into extra when it is not nil.
func decodeInput(w http.ResponseWriter, r *http.Request, extra any) (resolver.Input, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		decodeError(w, err)
		return resolver.Input{}, false
	}
	var input resolver.Input
	if err := json.Unmarshal(raw, &input); err != nil {
		decodeError(w, err)
		return resolver.Input{}, false
	}
	if extra != nil && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, extra); err != nil {
			decodeError(w, err)
			return resolver.Input{}, false
		}
	}
	return input, true
}

// Parse serves the stateless endpoints: text to events, and events (or
// text) to an .ics download.
func Parse(muxer *http.ServeMux, as *utils.AppState) {
	type IcsReqBody struct {
		CalendarName string `json:"calendarName"`
		// edited events; when absent the text is resolved instead
		Events []resolver.ResolvedEvent `json:"events"`
	}

	muxer.HandleFunc("POST /api/parse", LimitBodyMiddleware(as.Config.GetMaxInputBytes(),
		func(w http.ResponseWriter, r *http.Request) {
			input, ok := decodeInput(w, r, nil)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, EventsRespBody{Events: as.Resolve(input)})
		}))

	muxer.HandleFunc("POST /api/ics", LimitBodyMiddleware(as.Config.GetMaxInputBytes(),
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody IcsReqBody
			input, ok := decodeInput(w, r, &reqBody)
			if !ok {
				return
			}
			events := reqBody.Events
			if events == nil {
				events = as.Resolve(input)
			}

			name := utils.CalendarName(reqBody.CalendarName, ical.DefaultName)
			content, err := ical.Export(events, ical.ExportOptions{
				Name: name,
				Now:  as.Now(),
			})
			if err != nil {
				var customErr *ical.CustomError
				if errors.As(err, &customErr) {
					http.Error(w, customErr.Error(), http.StatusBadRequest)
					return
				}
				slog.Error("can't export calendar", "error", err)
				http.Error(w, "Can't export calendar", http.StatusInternalServerError)
				return
			}
			writeCalendar(w, name, content, true)
		}))
}
