package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"syllabical/src-server/resolver"
)

type Config struct {
	port string

	location     *time.Location
	databasePath string

	maxInputBytes          int64
	defaultDurationMinutes int
	defaultDeadlineTime    string

	calendarRetention time.Duration
	purgeSchedule     string
	metricInterval    time.Duration

	hostname string

	discordAppToken string
	discordClientId string
	discordGuildID  string
}

// fileConfig is the optional YAML file. Environment variables win over it.
type fileConfig struct {
	Port                   int     `yaml:"port"`
	Timezone               string  `yaml:"timezone"`
	DatabasePath           string  `yaml:"database_path"`
	MaxInputBytes          int64   `yaml:"max_input_bytes"`
	DefaultDurationMinutes int     `yaml:"default_duration_minutes"`
	DefaultDeadlineTime    *string `yaml:"default_deadline_time"`
	CalendarRetention      string  `yaml:"calendar_retention"`
	PurgeSchedule          string  `yaml:"purge_schedule"`
	MetricInterval         string  `yaml:"metric_interval"`
	Hostname               string  `yaml:"hostname"`
	Discord                struct {
		AppToken string `yaml:"app_token"`
		ClientID string `yaml:"client_id"`
		GuildID  string `yaml:"guild_id"`
	} `yaml:"discord"`
}

func (f fileConfig) values() map[string]string {
	values := map[string]string{
		"TIMEZONE":           f.Timezone,
		"DATABASE_PATH":      f.DatabasePath,
		"CALENDAR_RETENTION": f.CalendarRetention,
		"PURGE_SCHEDULE":     f.PurgeSchedule,
		"METRIC_INTERVAL":    f.MetricInterval,
		"HOSTNAME":           f.Hostname,
		"DISCORD_APP_TOKEN":  f.Discord.AppToken,
		"DISCORD_CLIENT_ID":  f.Discord.ClientID,
		"DISCORD_GUILD_ID":   f.Discord.GuildID,
	}
	if f.Port != 0 {
		values["PORT"] = strconv.Itoa(f.Port)
	}
	if f.MaxInputBytes != 0 {
		values["MAX_INPUT_BYTES"] = strconv.FormatInt(f.MaxInputBytes, 10)
	}
	if f.DefaultDurationMinutes != 0 {
		values["DEFAULT_DURATION_MINUTES"] = strconv.Itoa(f.DefaultDurationMinutes)
	}
	for key, value := range values {
		if value == "" {
			delete(values, key)
		}
	}
	// an explicit empty deadline time is meaningful
	if f.DefaultDeadlineTime != nil {
		values["DEFAULT_DEADLINE_TIME"] = *f.DefaultDeadlineTime
	}
	return values
}

// LoadConfig reads the YAML file at path, when given, then applies the
// environment on top of it.
func LoadConfig(path string) (*Config, error) {
	values := map[string]string{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadConfig: %w", err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("LoadConfig: %s: %w", path, err)
		}
		values = file.values()
		slog.Debug("config file loaded", "path", path)
	}

	config, err := NewConfig(func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := values[key]
		return value, ok
	})
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}
	return config, nil
}

// NewConfig builds a Config from lookup, which reports whether a key is set.
func NewConfig(lookup func(key string) (string, bool)) (*Config, error) {
	var errs []error
	get := func(key string) string {
		value, _ := lookup(key)
		return value
	}

	config := &Config{
		port: func() string {
			port := get("PORT")
			if port == "" {
				port = "8080"
			}
			if _, err := strconv.Atoi(port); err != nil {
				errs = append(errs, fmt.Errorf("invalid PORT %q", port))
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		location: func() *time.Location {
			timezoneStr := get("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Debug("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", timezoneStr, err))
					return time.Local
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),
		databasePath: func() string {
			databasePath := get("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return databasePath
		}(),

		maxInputBytes: func() int64 {
			raw := get("MAX_INPUT_BYTES")
			if raw == "" {
				return 256 << 10
			}
			maxInputBytes, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || maxInputBytes <= 0 {
				errs = append(errs, fmt.Errorf("invalid MAX_INPUT_BYTES %q", raw))
				return 256 << 10
			}
			slog.Debug("env", "MAX_INPUT_BYTES", maxInputBytes)
			return maxInputBytes
		}(),
		defaultDurationMinutes: func() int {
			raw := get("DEFAULT_DURATION_MINUTES")
			if raw == "" {
				return resolver.DefaultDurationMinutes
			}
			minutes, err := strconv.Atoi(raw)
			if err != nil || minutes <= 0 {
				errs = append(errs, fmt.Errorf("invalid DEFAULT_DURATION_MINUTES %q", raw))
				return resolver.DefaultDurationMinutes
			}
			slog.Debug("env", "DEFAULT_DURATION_MINUTES", minutes)
			return minutes
		}(),
		defaultDeadlineTime: func() string {
			deadlineTime, ok := lookup("DEFAULT_DEADLINE_TIME")
			if !ok {
				return resolver.DefaultDeadlineTime
			}
			if deadlineTime != "" {
				if _, err := time.Parse("15:04", deadlineTime); err != nil {
					errs = append(errs, fmt.Errorf("invalid DEFAULT_DEADLINE_TIME %q, want HH:MM", deadlineTime))
					return resolver.DefaultDeadlineTime
				}
			}
			slog.Debug("env", "DEFAULT_DEADLINE_TIME", deadlineTime)
			return deadlineTime
		}(),

		calendarRetention: func() time.Duration {
			raw := get("CALENDAR_RETENTION")
			if raw == "" {
				raw = "720h" // 30 days
			}
			duration, err := time.ParseDuration(raw)
			if err != nil || duration <= 0 {
				errs = append(errs, fmt.Errorf("invalid CALENDAR_RETENTION %q", raw))
				return 720 * time.Hour
			}
			slog.Debug("env", "CALENDAR_RETENTION", raw, "duration", duration)
			return duration
		}(),
		purgeSchedule: func() string {
			purgeSchedule := get("PURGE_SCHEDULE")
			if purgeSchedule == "" {
				purgeSchedule = "@hourly"
			}
			if _, err := cron.ParseStandard(purgeSchedule); err != nil {
				errs = append(errs, fmt.Errorf("invalid PURGE_SCHEDULE %q: %w", purgeSchedule, err))
			}
			slog.Debug("env", "PURGE_SCHEDULE", purgeSchedule)
			return purgeSchedule
		}(),
		metricInterval: func() time.Duration {
			raw := get("METRIC_INTERVAL")
			if raw == "" {
				raw = "15s"
			}
			duration, err := time.ParseDuration(raw)
			if err != nil || duration <= 0 {
				errs = append(errs, fmt.Errorf("invalid METRIC_INTERVAL %q", raw))
				return 15 * time.Second
			}
			slog.Debug("env", "METRIC_INTERVAL", raw, "duration", duration)
			return duration
		}(),

		hostname: func() string {
			hostname := get("HOSTNAME")
			slog.Debug("env", "HOSTNAME", hostname)
			return hostname
		}(),

		discordAppToken: func() string {
			discordAppToken := get("DISCORD_APP_TOKEN")
			if discordAppToken == "" {
				slog.Debug("DISCORD_APP_TOKEN is not set, discord bot disabled")
				return ""
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:min(3, len(discordAppToken))]+"...")
			return discordAppToken
		}(),
		discordClientId: func() string {
			discordClientId := get("DISCORD_CLIENT_ID")
			slog.Debug("env", "DISCORD_CLIENT_ID", discordClientId)
			return discordClientId
		}(),
		discordGuildID: func() string {
			discordGuildID := get("DISCORD_GUILD_ID")
			slog.Debug("env", "DISCORD_GUILD_ID", discordGuildID)
			return discordGuildID
		}(),
	}

	if config.discordAppToken != "" && config.discordClientId == "" {
		errs = append(errs, fmt.Errorf("DISCORD_CLIENT_ID is required when DISCORD_APP_TOKEN is set"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return config, nil
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get TIMEZONE env, default to the local timezone
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get DATABASE_PATH env, default to ./sqlite.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get MAX_INPUT_BYTES env, default to 256 KiB
func (c *Config) GetMaxInputBytes() int64 {
	return c.maxInputBytes
}

// Get DEFAULT_DURATION_MINUTES env, default to 60
func (c *Config) GetDefaultDurationMinutes() int {
	return c.defaultDurationMinutes
}

// Get DEFAULT_DEADLINE_TIME env, default to 23:59. Empty when disabled.
func (c *Config) GetDefaultDeadlineTime() string {
	return c.defaultDeadlineTime
}

// Get CALENDAR_RETENTION env, default to 720h
func (c *Config) GetCalendarRetention() time.Duration {
	return c.calendarRetention
}

// Get PURGE_SCHEDULE env, default to @hourly
func (c *Config) GetPurgeSchedule() string {
	return c.purgeSchedule
}

// Get METRIC_INTERVAL env, default to 15s
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricInterval
}

// Get HOSTNAME env
func (c *Config) GetHostname() string {
	return c.hostname
}

// Get DISCORD_APP_TOKEN env
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_CLIENT_ID env
func (c *Config) GetDiscordClientId() string {
	return c.discordClientId
}

// Get DISCORD_GUILD_ID env. Empty registers the commands globally.
func (c *Config) GetDiscordGuildID() string {
	return c.discordGuildID
}

func (c *Config) DiscordEnabled() bool {
	return c.discordAppToken != ""
}

// ResolverDefaults are the service-wide values used when a request leaves
// an option out.
func (c *Config) ResolverDefaults() resolver.Defaults {
	return resolver.Defaults{
		DurationMinutes: c.defaultDurationMinutes,
		DeadlineTime:    c.defaultDeadlineTime,
		Location:        c.location,
	}
}
