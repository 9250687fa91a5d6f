package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"daycal/internal/config"
	"daycal/internal/holiday"
	appLog "daycal/internal/log"
	"daycal/internal/store"
	"daycal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	dataFile   string
}

func main() {
	appLog.Info("daycal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI flags override the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataFile != "" {
		conf.DataFile = flags.dataFile
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_file", conf.DataFile,
		"week_start", conf.WeekStart,
		"show_holidays", conf.ShowHolidays,
		"extra_holidays", len(conf.Holidays),
		"backup", conf.BackupCron,
	)

	persister := store.NewFilePersister(conf.DataFile)
	events, err := persister.Load()
	if err != nil {
		// Recoverable by contract: start with an empty store rather
		// than refusing to come up.
		appLog.Error("failed to load events, starting empty", err, "data_file", conf.DataFile)
	}

	st := store.New(persister)
	st.Replace(events)
	appLog.Info("events loaded", "count", st.Len(), "anchors", len(st.Anchors()))

	holidays := holiday.New(conf.HolidayEntries()...)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Scheduled data file snapshots.
	var scheduler *cron.Cron
	if conf.BackupCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(conf.BackupCron, func() {
			dst, err := persister.Backup()
			if err != nil {
				appLog.Error("scheduled backup failed", err)
				return
			}
			if dst != "" {
				appLog.Info("backup written", "file", dst)
			}
			if err := persister.PruneBackups(conf.BackupKeep); err != nil {
				appLog.Error("backup prune failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid backup schedule, backups disabled", err, "backup", conf.BackupCron)
		} else {
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	srv := web.NewServer(conf, st, holidays)
	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}

	appLog.Info("daycal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataFile, "data", "", "Events data file path (overrides config if set)")

	flag.Parse()

	return cfg
}
