// Package handler serves the Discord side of the app: slash commands,
// components and modals, all dispatched through the handlers registered
// on AppState.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/bwmarrin/discordgo"

	"syllabical/src-server/utils"
)

// Start registers every command, opens the Discord session and keeps it
// open until ctx is done.
func Start(ctx context.Context, as *utils.AppState) error {
	if as.DgSession == nil {
		return fmt.Errorf("handler.Start: discord session not configured")
	}

	// There are 2 important things inside the AppState:
	// - appCmdInfo: a map of all slash commands
	// - appCmdHandler: a map of all slash command handlers
	// injecting interaction handlers into both
	Ping(as)
	Syllabus(as)

	as.DgSession.AddHandler(dispatch(as))

	if err := as.DgSession.Open(); err != nil {
		return fmt.Errorf("handler.Start: can't open discord connection: %w", err)
	}
	defer func() {
		if err := as.DgSession.Close(); err != nil {
			slog.Warn("can't close discord connection", "error", err)
		}
	}()

	// tell Discord what commands we have (w/ appCmdInfo)
	if _, err := as.DgSession.ApplicationCommandBulkOverwrite(
		as.Config.GetDiscordClientId(),
		as.Config.GetDiscordGuildID(),
		appCommands(as),
	); err != nil {
		slog.Error("can't create slash commands", "error", err)
	}

	// cleanup appCmdInfo from memory
	as.NukeAppCmdInfo()
	runtime.GC()

	slog.Info("discord bot is running", "guilds", len(as.DgSession.State.Guilds))
	<-ctx.Done()
	return nil
}

func appCommands(as *utils.AppState) []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0)
	as.IterateAppCmdInfo(func(_ string, v *discordgo.ApplicationCommand) {
		cmds = append(cmds, v)
	})
	return cmds
}

// interactionID is the key a handler is registered under.
func interactionID(i *discordgo.InteractionCreate) (string, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand: // slash commands
		return i.ApplicationCommandData().Name, true
	case discordgo.InteractionMessageComponent: // buttons, dropdowns, etc
		return i.MessageComponentData().CustomID, true
	case discordgo.InteractionModalSubmit: // modal a.k.a. text input
		return i.ModalSubmitData().CustomID, true
	}
	return "", false
}

// dispatch tells discordgo how to handle interactions (w/ appCmdHandler).
func dispatch(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i == nil || i.Interaction == nil {
			return
		}
		id, ok := interactionID(i)
		if !ok {
			slog.Error("unknown interaction type", "type", i.Type)
			return
		}

		if handler, ok := as.GetAppCmdHandler(id); ok {
			if err := handler(s, i); err != nil {
				slog.Error("handler error", "command", id, "error", err)
			}
			return
		}

		if err := utils.InteractRespHiddenReply(s, i, "Expired interaction"); err != nil {
			slog.Warn("can't respond", "error", err)
		}
		slog.Debug("someone used an expired interaction", "username", username(i), "custom_id", id)
	}
}

func username(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	}
	return "unknown"
}
