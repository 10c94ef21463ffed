package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mindtrack/internal/bootstrap"
	"mindtrack/internal/platform/config"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "mindtrack",
		Short:         "Study session timer with emotion-aware rescheduling",
		Version:       bootstrap.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for config, history and reports")

	root.AddCommand(newServeCmd(&dataDir))
	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newHistoryCmd(&dataDir))
	root.AddCommand(newAllocatorCmd(&dataDir))
	root.AddCommand(newClassifierCmd(&dataDir))
	root.AddCommand(newConfigCmd(&dataDir))
	return root
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mindtrack")
	}
	return ".mindtrack"
}

func loadApp(dataDir string) (*bootstrap.App, config.Config, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, config.Config{}, err
	}
	app, err := bootstrap.New(cfg, os.Stderr)
	if err != nil {
		return nil, config.Config{}, err
	}
	return app, cfg, nil
}

func newServeCmd(dataDir *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cfg, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr == "" {
				addr = cfg.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := &http.Server{
				Addr:              addr,
				Handler:           app.SessionHTTP.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errs := make(chan error, 1)
			go func() {
				app.Logger.Info("http server listening", "addr", addr)
				errs <- server.ListenAndServe()
			}()

			select {
			case err := <-errs:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve http: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			app.Logger.Info("http server shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http: %w", err)
			}
			return nil
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http_addr from config)")
	return serve
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run a study session in the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*dataDir)
			if err != nil {
				return err
			}
			// The dashboard owns the terminal, so logs go to a file.
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "mindtrack.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			app, err := bootstrap.New(cfg, logFile)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newHistoryCmd(dataDir *string) *cobra.Command {
	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List archived sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			entries, err := app.SessionCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions archived")
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  topics=%d completed=%d backlog=%d studied=%d/%dmin reschedules=%d  %s\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04"), e.SessionID, e.TotalTopics, e.CompletedCount,
					e.BacklogCount, e.StudiedMinutes, e.TotalMinutes, e.RescheduleCount, e.ReportPath)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show (0 for all)")
	return history
}

func newAllocatorCmd(dataDir *string) *cobra.Command {
	allocator := &cobra.Command{Use: "allocator", Short: "Schedule allocator operations"}
	allocator.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that the language model backend is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			status := app.ScheduleCLI.Check(cmd.Context())
			state := "disconnected"
			if status.Connected {
				state = "connected"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "status=%s model=%s %s\n", state, status.Model, status.Message)
			if !status.Connected {
				return fmt.Errorf("allocator unavailable")
			}
			return nil
		},
	})
	return allocator
}

func newClassifierCmd(dataDir *string) *cobra.Command {
	classifier := &cobra.Command{Use: "classifier", Short: "Emotion classifier plugins"}
	classifier.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List classifier manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			infos, err := app.ClassifierCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no classifiers configured")
				return nil
			}
			for _, info := range infos {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s enabled=%t binary=%s\n", info.Name, info.Version, info.Enabled, info.Binary)
			}
			return nil
		},
	})
	classifier.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate classifier checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			results, err := app.ClassifierCLI.Doctor(cmd.Context())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no classifiers configured")
				return nil
			}
			failed := false
			for _, r := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t labels=%s",
					r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK, strings.Join(r.Labels, ","))
				if r.Error != "" {
					failed = true
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%s", r.Error)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			if failed {
				return fmt.Errorf("classifier doctor found problems")
			}
			return nil
		},
	})
	classifier.AddCommand(&cobra.Command{
		Use:   "classify <image>",
		Short: "Classify the emotion in an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ClassifierCLI.ClassifyFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "classifier=%s raw=%s emotion=%s confidence=%.2f\n", out.Classifier, out.Raw, out.Label, out.Confidence)
			return nil
		},
	})
	return classifier
}

func newConfigCmd(dataDir *string) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default(*dataDir)
			path := cfg.File()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := cfg.WriteFile(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*dataDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "config_file=%s\n", cfg.File())
			_, _ = fmt.Fprintf(out, "db_path=%s\nreports_dir=%s\n", cfg.DBPath, cfg.ReportsDir)
			_, _ = fmt.Fprintf(out, "http_addr=%s\nlog_level=%s\ndebug=%t\n", cfg.HTTPAddr, cfg.LogLevel, cfg.Debug)
			_, _ = fmt.Fprintf(out, "cors_origins=%s\n", strings.Join(cfg.CORSOrigins, ","))
			_, _ = fmt.Fprintf(out, "ollama_base_url=%s\nollama_model=%s\nallocator_timeout=%s\n", cfg.OllamaBaseURL, cfg.OllamaModel, cfg.AllocatorTimeout)
			_, _ = fmt.Fprintf(out, "emotion_detection_enabled=%t\nemotion_buffer_size=%d\nnegative_emotions=%s\nclassifier_timeout=%s\n",
				cfg.EmotionDetectionEnabled, cfg.EmotionBufferSize, strings.Join(cfg.NegativeEmotions, ","), cfg.ClassifierTimeout)
			return nil
		},
	}
	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}
