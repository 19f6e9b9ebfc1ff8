package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"syllabical/src-server/datetime"
	"syllabical/src-server/handler"
	"syllabical/src-server/ical"
	"syllabical/src-server/metric"
	"syllabical/src-server/resolver"
	"syllabical/src-server/route"
	"syllabical/src-server/scheduler"
	"syllabical/src-server/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:          "syllabical",
		Short:        "Turn course syllabus text into calendar events",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configPath = configFile(configPath)
		},
	}
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file, env vars override it (default $CONFIG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newConvertCmd())
}

// configFile falls back to CONFIG_FILE when --config is not given. It runs
// after init so a value from .env is seen.
func configFile(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("CONFIG_FILE")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the retention job and, when configured, the Discord bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := utils.LoadConfig(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()
		return serve(ctx, config)
	},
}

func serve(ctx context.Context, config *utils.Config) error {
	as, err := utils.NewAppState(ctx, config)
	if err != nil {
		return err
	}
	defer as.Close()

	server := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           route.NewMux(as, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	metric.Init(ctx, as, prometheus.DefaultRegisterer)

	g.Go(func() error {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return scheduler.Start(ctx, as)
	})
	if config.DiscordEnabled() {
		g.Go(func() error {
			return handler.Start(ctx, as)
		})
	}

	slog.Info("app is now running, press Ctrl+C to exit")
	err = g.Wait()
	slog.Info("gracefully shutting down...")
	return err
}

type convertOptions struct {
	year        int
	duration    int
	defaultTime string
	name        string
	asJSON      bool
	output      string
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert syllabus text to an .ics file (reads stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) > 0 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("convert: %w", err)
				}
				defer f.Close()
				in = f
			}

			out := cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("convert: %w", err)
				}
				defer f.Close()
				out = f
			}

			input := resolver.Input{}
			if cmd.Flags().Changed("year") {
				year := float64(opts.year)
				input.FallbackYear = &year
			}
			if cmd.Flags().Changed("duration") {
				duration := float64(opts.duration)
				input.DefaultDurationMinutes = &duration
			}
			if cmd.Flags().Changed("default-time") {
				input.DefaultTime = &opts.defaultTime
			}
			return convert(in, out, input, opts, time.Now())
		},
	}
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year for dates that do not spell one out (default current year)")
	cmd.Flags().IntVar(&opts.duration, "duration", resolver.DefaultDurationMinutes, "Minutes for timed events without an end")
	cmd.Flags().StringVar(&opts.defaultTime, "default-time", resolver.DefaultDeadlineTime, `Time given to deadlines without one, "" to keep them all day`)
	cmd.Flags().StringVar(&opts.name, "name", ical.DefaultName, "Calendar name")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the resolved events as JSON instead of iCalendar")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// convert resolves text read from r and writes the events to w, as iCalendar
// or as JSON.
func convert(r io.Reader, w io.Writer, input resolver.Input, opts convertOptions, now time.Time) error {
	text, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("convert: can't read input: %w", err)
	}
	input.Text = string(text)

	events, stats := resolver.ResolveInput(datetime.NewWhenExtractor(), input, now, resolver.Defaults{
		DurationMinutes: resolver.DefaultDurationMinutes,
		DeadlineTime:    resolver.DefaultDeadlineTime,
		Location:        now.Location(),
	})
	slog.Debug("resolved", "lines", stats.Lines, "filtered", stats.Filtered, "events", stats.Events)

	if opts.asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(route.EventsRespBody{Events: events}); err != nil {
			return fmt.Errorf("convert: %w", err)
		}
		return nil
	}

	content, err := ical.Export(events, ical.ExportOptions{
		Name: utils.CalendarName(opts.name, ical.DefaultName),
		Now:  now,
	})
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	return nil
}
