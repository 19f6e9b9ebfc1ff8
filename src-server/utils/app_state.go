package utils

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"syllabical/src-server/datetime"
	"syllabical/src-server/model"
)

type AppState struct {
	Config      *Config
	RawDB       *sql.DB
	BunDB       *bun.DB
	DgSession   *discordgo.Session
	Extractor   datetime.Extractor
	MetricChans *Metric
	// current time, swapped out in tests
	Now func() time.Time

	startedAt time.Time

	mu sync.RWMutex
	// will be send to Discord
	appCmdInfo map[string]*discordgo.ApplicationCommand
	// handling commands, components and modals from Discord WSAPI
	appCmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error
}

// NewAppState opens the database, creates the schema and, when a token is
// configured, prepares the Discord session. The session is not opened here.
func NewAppState(ctx context.Context, config *Config) (*AppState, error) {
	as := &AppState{
		Config:        config,
		Extractor:     datetime.NewWhenExtractor(),
		MetricChans:   NewMetric(),
		Now:           time.Now,
		startedAt:     time.Now(),
		appCmdInfo:    make(map[string]*discordgo.ApplicationCommand),
		appCmdHandler: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error),
	}

	// database
	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, dsn(config.GetDatabasePath()))
	if err != nil {
		return nil, fmt.Errorf("NewAppState: can't open sqlite database: %w", err)
	}
	if config.GetDatabasePath() == ":memory:" {
		// every connection to :memory: is a separate database
		as.RawDB.SetMaxOpenConns(1)
	} else {
		as.RawDB.SetMaxIdleConns(8)
	}

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	if err := model.CreateSchema(ctx, as.BunDB); err != nil {
		as.BunDB.Close()
		return nil, fmt.Errorf("NewAppState: %w", err)
	}

	// discord
	if config.DiscordEnabled() {
		as.DgSession, err = discordgo.New("Bot " + config.GetDiscordAppToken())
		if err != nil {
			as.BunDB.Close()
			return nil, fmt.Errorf("NewAppState: can't create discord session: %w", err)
		}
		as.DgSession.Identify.Intents = discordgo.IntentsGuilds
	}

	return as, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?mode=rwc"
}

// Close releases the database and the Discord connection.
func (as *AppState) Close() {
	if as.DgSession != nil {
		if err := as.DgSession.Close(); err != nil {
			slog.Warn("can't close discord session", "error", err)
		}
	}
	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}

func (as *AppState) GetUptime() time.Duration {
	return time.Since(as.startedAt).Round(time.Second)
}

// #region app commands

func (as *AppState) AddAppCmdInfo(id string, info *discordgo.ApplicationCommand) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo[id] = info
}

func (as *AppState) IterateAppCmdInfo(f func(id string, info *discordgo.ApplicationCommand)) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for id, info := range as.appCmdInfo {
		f(id, info)
	}
}

// Drop the command descriptions once they have been sent to Discord.
func (as *AppState) NukeAppCmdInfo() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo = make(map[string]*discordgo.ApplicationCommand)
}

func (as *AppState) AddAppCmdHandler(id string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdHandler[id] = handler
}

func (as *AppState) GetAppCmdHandler(id string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	handler, ok := as.appCmdHandler[id]
	return handler, ok
}

func (as *AppState) RemoveAppCmdHandler(id string) {
	as.mu.Lock()
	defer as.mu.Unlock()
	delete(as.appCmdHandler, id)
}

// #endregion
