// Command chartsnap captures chart screenshots from a browser and forwards
// them to a Telegram chat, either one-shot or on a schedule.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/chartsnap/chartsnap/internal/app"
	"github.com/chartsnap/chartsnap/internal/config"
	"github.com/chartsnap/chartsnap/internal/notifier"
	"github.com/chartsnap/chartsnap/internal/notifier/providers"
	"github.com/chartsnap/chartsnap/internal/scheduler"
	"github.com/chartsnap/chartsnap/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	root := &cobra.Command{
		Use:           "chartsnap",
		Short:         "Capture chart screenshots and send them to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd(), daemonCmd(), checkCmd(), openCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func runCmd() *cobra.Command {
	var (
		targetName string
		noSend     bool
		headed     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture all configured targets once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noSend {
				cfg.Telegram.Send = false
			}
			if headed {
				cfg.Browser.Headless = false
			}
			if targetName != "" {
				t, ok := findTarget(cfg, targetName)
				if !ok {
					return fmt.Errorf("no target named %q in config", targetName)
				}
				cfg.Targets = []config.TargetConfig{t}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, st, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return a.CaptureAll(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "capture only the named target")
	cmd.Flags().BoolVar(&noSend, "no-send", false, "skip Telegram delivery")
	cmd.Flags().BoolVar(&headed, "headed", false, "run the browser with a visible window")
	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run captures on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, st, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			sched, err := scheduler.New(cfg.Schedule.Timezone)
			if err != nil {
				return err
			}
			if err := sched.AddCaptureJob(cfg.Schedule.CaptureIntervalHours, a.CaptureAll); err != nil {
				return err
			}
			if cfg.Schedule.ReportTime != "" {
				if err := sched.AddReportJob(cfg.Schedule.ReportTime, a.SendDailyReport); err != nil {
					return err
				}
			}

			sched.Start()
			for _, j := range sched.ListJobs() {
				log.Printf("Job %s next runs at %s", j.Name, j.NextRun.Format("2006-01-02 15:04"))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Println("Shutting down...")
			<-sched.Stop().Done()
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the Telegram bot token and chat id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sender, err := providers.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID)
			if err != nil {
				return err
			}
			fmt.Printf("Bot token OK, authenticated as @%s\n", sender.BotName())

			if sendTest {
				if err := sender.SendMessage(cmd.Context(), "Test message from chartsnap"); err != nil {
					return fmt.Errorf("test message: %w", err)
				}
				fmt.Println("Test message sent")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sendTest, "send-test", false, "also send a test message to the chat")
	return cmd
}

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache>",
		Short:     "Open the config file or cache directory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "cache"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error
			switch args[0] {
			case "config":
				path, err = config.ConfigPath()
			case "cache":
				path, err = config.CacheDir()
			default:
				return fmt.Errorf("unknown target: %s", args[0])
			}
			if err != nil {
				return err
			}
			return browser.OpenFile(path)
		},
	}
}

// loadConfig loads the config file, creating a default one on first run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg = config.Default()
	if saveErr := cfg.Save(); saveErr != nil {
		log.Printf("Warning: could not save default config: %v", saveErr)
	} else {
		path, _ := config.ConfigPath()
		log.Printf("Created default config at: %s", path)
	}
	cfg = applyEnvToDefault(cfg)
	return cfg, nil
}

// applyEnvToDefault mirrors the env overrides Load performs, for the
// first-run path where the file did not exist yet.
func applyEnvToDefault(cfg *config.Config) *config.Config {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	return cfg
}

func findTarget(cfg *config.Config, name string) (config.TargetConfig, bool) {
	for _, t := range cfg.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return config.TargetConfig{}, false
}

// buildApp assembles the store, notifier and app from config.
func buildApp(cfg *config.Config) (*app.App, *store.Store, error) {
	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		cacheDir, err := config.CacheDir()
		if err != nil {
			return nil, nil, err
		}
		dbPath = filepath.Join(cacheDir, "chartsnap.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var notif *notifier.Notifier
	if cfg.Telegram.Send {
		notif, err = notifier.NewFromConfig(cfg.Telegram)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
	}

	a, err := app.New(cfg, st, notif)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return a, st, nil
}
