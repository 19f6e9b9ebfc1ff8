package handler

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"

	"syllabical/src-server/utils"
)

func Ping(as *utils.AppState) {
	id := "ping"
	as.AddAppCmdHandler(id, pingHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "A ping command.",
	})
}

func pingEmbed(as *utils.AppState, latency time.Duration) *discordgo.MessageEmbed {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memUsage := float64(m.Sys) / 1024 / 1024

	return &discordgo.MessageEmbed{
		Title: "Pong!",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Uptime",
				Value: as.GetUptime().String(),
			},
			{
				Name:   "Latency",
				Value:  fmt.Sprintf("%dms", latency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "Go version",
				Value:  runtime.Version(),
				Inline: true,
			},
			{
				Name:   "Memory",
				Value:  fmt.Sprintf("%.2fMB", memUsage),
				Inline: true,
			},
		},
	}
}

func pingHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		embed := pingEmbed(as, s.HeartbeatLatency())
		embed.Footer = &discordgo.MessageEmbedFooter{Text: i.GuildID}

		startTimer := time.Now()
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:  discordgo.MessageFlagsEphemeral,
				Embeds: []*discordgo.MessageEmbed{embed},
			},
		}); err != nil {
			slog.Warn("pingHandler: can't respond", "error", err)
		}
		utils.Send(as.MetricChans.DiscordSendMessage, float64(time.Since(startTimer).Microseconds()))
		return nil
	}
}
