package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"sharedcal/internal/config"
	appLog "sharedcal/internal/log"
	"sharedcal/internal/store"
	"sharedcal/internal/web"
)

// flagConfig holds CLI flag values applied on top of the config file.
type flagConfig struct {
	configPath string
	listen     string
	dataDir    string
	backup     bool
	export     bool
}

func main() {
	appLog.Info("sharedcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_dir", conf.DataDir,
		"backup_cron", conf.BackupCron,
		"log_level", conf.LogLevel,
		"basic_auth", conf.BasicAuth != nil,
	)

	kv, err := store.NewFileKV(conf.DataDir)
	if err != nil {
		appLog.Error("failed to open data directory", err, "data_dir", conf.DataDir)
		os.Exit(1)
	}
	st := store.New(kv)
	defer st.Close()
	st.Migrate()

	// One-shot modes exit before any server or scheduler starts.
	if flags.export {
		data, err := st.ExportData()
		if err != nil {
			appLog.Error("export failed", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	if flags.backup {
		id, ok := st.CreateBackup()
		if !ok {
			appLog.Error("backup failed", errors.New("store rejected backup"))
			os.Exit(1)
		}
		appLog.Info("backup created", "id", id)
		return
	}

	st.OnChange(func(kind store.ChangeKind) {
		appLog.Info("data changed externally", "kind", string(kind))
	})

	// Scheduled backups. An empty cron expression disables them.
	var scheduler *cron.Cron
	if conf.BackupCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(conf.BackupCron, func() {
			if id, ok := st.CreateBackup(); ok {
				appLog.Info("scheduled backup created", "id", id)
			}
		})
		if err != nil {
			appLog.Error("invalid backup schedule", err, "backup_cron", conf.BackupCron)
			os.Exit(1)
		}
		scheduler.Start()
		appLog.Info("backup scheduler started", "backup_cron", conf.BackupCron)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := web.StartServer(ctx, conf, st); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	if scheduler != nil {
		stopCtx := scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	appLog.Info("sharedcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/sharedcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataDir, "data-dir", "", "Data directory (overrides config if set)")
	flag.BoolVar(&cfg.backup, "backup", false, "Create a backup and exit")
	flag.BoolVar(&cfg.export, "export", false, "Print a full data export to stdout and exit")

	flag.Parse()

	return cfg
}
