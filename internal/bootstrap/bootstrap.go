package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	emotioninadapter "mindtrack/internal/modules/emotion/adapter/in"
	emotionoutadapter "mindtrack/internal/modules/emotion/adapter/out"
	emotionservice "mindtrack/internal/modules/emotion/service"
	emotionusecase "mindtrack/internal/modules/emotion/usecase"
	scheduleinadapter "mindtrack/internal/modules/schedule/adapter/in"
	scheduleoutadapter "mindtrack/internal/modules/schedule/adapter/out"
	scheduleservice "mindtrack/internal/modules/schedule/service"
	scheduleusecase "mindtrack/internal/modules/schedule/usecase"
	sessioninadapter "mindtrack/internal/modules/session/adapter/in"
	sessionoutadapter "mindtrack/internal/modules/session/adapter/out"
	"mindtrack/internal/modules/session/domain"
	sessionservice "mindtrack/internal/modules/session/service"
	sessionusecase "mindtrack/internal/modules/session/usecase"
	"mindtrack/internal/platform/clock"
	"mindtrack/internal/platform/config"
	"mindtrack/internal/platform/id"
	"mindtrack/internal/platform/logging"
	"mindtrack/internal/platform/tx"
	uiapp "mindtrack/internal/ui/app"
)

const (
	appName    = "mindtrack"
	AppVersion = "0.1.0"
)

type App struct {
	SessionCLI    sessioninadapter.CLIHandler
	SessionHTTP   *sessioninadapter.HTTPHandler
	ScheduleCLI   scheduleinadapter.CLIHandler
	ClassifierCLI emotioninadapter.CLIHandler
	Logger        *slog.Logger

	history *sessionoutadapter.SQLiteHistoryStore
}

// New wires every module for cfg. Application and plugin logs both go to
// logOut. Close releases the history database.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	if logOut == nil {
		logOut = io.Discard
	}
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	logger := logging.New(logOut, level)
	clk := clock.SystemClock{}

	negative := make([]domain.Emotion, 0, len(cfg.NegativeEmotions))
	for _, raw := range cfg.NegativeEmotions {
		emotion, err := domain.ParseEmotion(raw)
		if err != nil {
			return nil, fmt.Errorf("negative emotions: %w", err)
		}
		negative = append(negative, emotion)
	}

	llm := scheduleoutadapter.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.AllocatorTimeout)
	scheduleUC := scheduleusecase.NewInteractor(scheduleservice.NewAllocatorService(llm, logger.With("module", "schedule")))

	pluginLogger := logging.NewPluginLogger(logOut, "classifier", level)
	emotionUC := emotionusecase.NewInteractor(emotionservice.NewClassifierService(
		emotionoutadapter.NewFileManifestStore(cfg.DataDir),
		emotionoutadapter.NewGRPCHost(pluginLogger),
		logger.With("module", "emotion"),
		cfg.ClassifierTimeout,
	))

	history, err := sessionoutadapter.NewSQLiteHistoryStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	sessionSvc := sessionservice.NewSessionService(sessionservice.Deps{
		Registry:         sessionservice.NewRegistry(sessionoutadapter.NewMemorySessionStore(), id.UUID{}, clk),
		Locker:           tx.NewKeyedLocker(),
		Clock:            clk,
		Timer:            sessionservice.NewTimerAccountant(clk),
		Emotions:         sessionservice.NewEmotionEvaluator(cfg.EmotionBufferSize, negative),
		Allocator:        sessionoutadapter.NewScheduleAllocator(scheduleUC),
		Classifier:       sessionoutadapter.NewPluginClassifier(emotionUC),
		History:          history,
		Reports:          sessionoutadapter.NewMarkdownReportWriter(cfg.ReportsDir),
		Logger:           logger.With("module", "session"),
		AllocatorTimeout: cfg.AllocatorTimeout,
		DetectionEnabled: cfg.EmotionDetectionEnabled,
	})
	sessionUC := sessionusecase.NewInteractor(sessionSvc)

	return &App{
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		SessionHTTP: sessioninadapter.NewHTTPHandler(sessionUC, logger.With("module", "http"), clk, id.RandomHex{}, cfg.CORSOrigins, sessioninadapter.HTTPInfo{
			Name:     appName,
			Version:  AppVersion,
			Model:    cfg.OllamaModel,
			Detector: cfg.EmotionDetectionEnabled,
		}),
		ScheduleCLI:   scheduleinadapter.NewCLIHandler(scheduleUC),
		ClassifierCLI: emotioninadapter.NewCLIHandler(emotionUC),
		Logger:        logger,
		history:       history,
	}, nil
}

func (a *App) Close() error {
	return a.history.Close()
}

func RunTUI(app *App) error {
	program := tea.NewProgram(uiapp.NewModel(app.SessionCLI), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
