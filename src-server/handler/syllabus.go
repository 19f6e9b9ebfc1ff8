package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"syllabical/src-server/ical"
	"syllabical/src-server/model"
	"syllabical/src-server/resolver"
	"syllabical/src-server/utils"
)

const (
	syllabusModalID = "syllabus-submit"

	syllabusNameInputID = "name"
	syllabusYearInputID = "year"
	syllabusTextInputID = "text"

	// Discord caps a paragraph input at 4000 characters
	syllabusMaxText = 4000
	// events listed in the reply before "and N more"
	syllabusPreviewCount = 10
)

// Syllabus registers /syllabus: it opens a modal for pasting syllabus text
// and replies with the resolved events as an .ics attachment.
func Syllabus(as *utils.AppState) {
	id := "syllabus"
	as.AddAppCmdHandler(id, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := s.InteractionRespond(i.Interaction, syllabusModal()); err != nil {
			return fmt.Errorf("syllabusHandler: can't send modal: %w", err)
		}
		return nil
	})
	as.AddAppCmdHandler(syllabusModalID, syllabusSubmitHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Turn pasted syllabus text into a calendar file.",
	})
}

func syllabusModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: syllabusModalID,
			Title:    "Syllabus to calendar",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    syllabusNameInputID,
							Label:       "Calendar name",
							Placeholder: "CS 101 Fall",
							Style:       discordgo.TextInputShort,
							MaxLength:   100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    syllabusYearInputID,
							Label:       "Year (defaults to this year)",
							Placeholder: "2025",
							Style:       discordgo.TextInputShort,
							MaxLength:   4,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    syllabusTextInputID,
							Label:       "Syllabus text",
							Placeholder: "Sep 19 3-4pm - Quiz 1",
							Style:       discordgo.TextInputParagraph,
							Required:    true,
							MaxLength:   syllabusMaxText,
						},
					},
				},
			},
		},
	}
}

// modalValues collects the text inputs of a submitted modal by custom id.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

// syllabusInput turns the modal fields into resolver input. A blank or
// unreadable year falls back to the current one.
func syllabusInput(values map[string]string) resolver.Input {
	in := resolver.Input{Text: values[syllabusTextInputID]}
	if year, err := strconv.Atoi(strings.TrimSpace(values[syllabusYearInputID])); err == nil && year > 0 {
		fallbackYear := float64(year)
		in.FallbackYear = &fallbackYear
	}
	return in
}

func formatEvent(e resolver.ResolvedEvent) string {
	switch {
	case e.AllDay:
		return fmt.Sprintf("`%s` %s", e.Start.Format("Mon Jan 2"), e.Title)
	case e.End == nil:
		return fmt.Sprintf("`%s` %s (due)", e.Start.Format("Mon Jan 2 15:04"), e.Title)
	default:
		return fmt.Sprintf("`%s-%s` %s", e.Start.Format("Mon Jan 2 15:04"), e.End.Format("15:04"), e.Title)
	}
}

// summarize lists the first few events for the reply message.
func summarize(name string, events []resolver.ResolvedEvent, feedURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found `%d` events for **%s**:\n", len(events), name))
	for i, e := range events {
		if i == syllabusPreviewCount {
			sb.WriteString(fmt.Sprintf("...and %d more\n", len(events)-syllabusPreviewCount))
			break
		}
		sb.WriteString("- " + formatEvent(e) + "\n")
	}
	if feedURL != "" {
		sb.WriteString("\nSubscribe: " + feedURL)
	}
	return sb.String()
}

func syllabusSubmitHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		values := modalValues(i.ModalSubmitData())
		name := utils.CalendarName(values[syllabusNameInputID], ical.DefaultName)

		events := as.Resolve(syllabusInput(values))
		if len(events) == 0 {
			if err := utils.InteractRespHiddenReply(s, i, "No dated events found in that text."); err != nil {
				slog.Warn("syllabusSubmitHandler: can't respond", "error", err)
			}
			return nil
		}

		content, err := ical.Export(events, ical.ExportOptions{Name: name, Now: as.Now()})
		if err != nil {
			if err := utils.InteractRespHiddenReply(s, i, "Can't build the calendar file."); err != nil {
				slog.Warn("syllabusSubmitHandler: can't respond", "error", err)
			}
			return fmt.Errorf("syllabusSubmitHandler: %w", err)
		}

		// a feed link is only useful when the service is reachable
		feedURL := ""
		if hostname := as.Config.GetHostname(); hostname != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			var calendarModel *model.Calendar
			if err := utils.Measure(as.MetricChans.DatabaseWrite, func() error {
				var err error
				calendarModel, err = model.SaveCalendar(ctx, as.BunDB, name, events, as.Now())
				return err
			}); err != nil {
				slog.Warn("syllabusSubmitHandler: can't save calendar", "error", err)
			} else {
				feedURL = fmt.Sprintf("https://%s/ical/%s", hostname, calendarModel.ID)
			}
		}

		startTimer := time.Now()
		err = utils.InteractRespFile(s, i, summarize(name, events, feedURL), &discordgo.File{
			Name:        utils.CalendarFileName(name),
			ContentType: "text/calendar",
			Reader:      strings.NewReader(content),
		})
		utils.Send(as.MetricChans.DiscordSendMessage, float64(time.Since(startTimer).Microseconds()))
		if err != nil {
			return fmt.Errorf("syllabusSubmitHandler: can't respond: %w", err)
		}
		return nil
	}
}
