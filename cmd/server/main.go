package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/api"
	"github.com/themobileprof/medibot-be/internal/api/middleware"
	"github.com/themobileprof/medibot-be/internal/catalog"
	"github.com/themobileprof/medibot-be/internal/chat"
	"github.com/themobileprof/medibot-be/internal/circuitbreaker"
	"github.com/themobileprof/medibot-be/internal/classifier"
	"github.com/themobileprof/medibot-be/internal/config"
	"github.com/themobileprof/medibot-be/internal/db"
	"github.com/themobileprof/medibot-be/internal/diagnosis"
	"github.com/themobileprof/medibot-be/internal/language"
	"github.com/themobileprof/medibot-be/internal/logging"
	"github.com/themobileprof/medibot-be/internal/matcher"
	"github.com/themobileprof/medibot-be/internal/memory"
	"github.com/themobileprof/medibot-be/internal/reminder"
	"github.com/themobileprof/medibot-be/internal/speech"
	"github.com/themobileprof/medibot-be/internal/tips"
	"github.com/themobileprof/medibot-be/internal/translate"
	"github.com/themobileprof/medibot-be/internal/ws"
	"github.com/themobileprof/medibot-be/pkg/gtranslate"
	"github.com/themobileprof/medibot-be/pkg/gtts"
	"github.com/themobileprof/medibot-be/pkg/twilio"
)

const (
	transcriptSize   = 20
	sessionIdleLimit = 30 * time.Minute
	pruneInterval    = 5 * time.Minute
	shutdownTimeout  = 5 * time.Second
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	if envErr != nil {
		logger.Debug(".env file not loaded", zap.Error(envErr))
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reference catalog
	cat, err := catalog.Load(ctx, cfg.CatalogSource)
	if err != nil {
		logger.Fatal("failed to load reference catalog", zap.Error(err))
	}
	logger.Info("✅ catalog loaded",
		zap.String("source", cat.Source()),
		zap.Int("records", cat.Len()),
		zap.Int("skipped", cat.Skipped()))
	store := catalog.NewStore(cat, cfg.CatalogSource, logger)

	// Matching pipeline
	aggregator := diagnosis.New(
		matcher.New(cfg.MatchWorkers, logger),
		diagnosis.Options{TopN: cfg.DiagnosisTopN, MinScore: cfg.DiagnosisMinScore},
		logger,
	)
	var clsOpts []classifier.Option
	if cfg.IntentFuzzyThreshold > 0 {
		clsOpts = append(clsOpts, classifier.WithFuzzyThreshold(cfg.IntentFuzzyThreshold))
	}
	cls := classifier.NewClassifier(clsOpts...)

	memMgr := memory.NewMemoryManager(transcriptSize)
	langMgr := language.NewManager(cfg.DefaultLanguage)

	// Outbound services, each behind its own breaker
	translator := translate.NewService(
		gtranslate.NewHTTPClient(gtranslate.Config{BaseURL: cfg.TranslateBaseURL, Timeout: cfg.TranslateTimeout}),
		circuitbreaker.New("translate", circuitbreaker.Config{MaxFailures: 5, ResetTimeout: 30 * time.Second}, logger),
		cfg.TranslateTimeout,
		logger,
	)
	engineOpts := []chat.Option{chat.WithTranslator(translator)}

	var speaker *speech.Speaker
	if cfg.VoiceEnabled {
		speaker = speech.NewSpeaker(
			gtts.NewHTTPClient(gtts.Config{BaseURL: cfg.TTSBaseURL, Timeout: cfg.TTSTimeout}),
			circuitbreaker.New("tts", circuitbreaker.Config{MaxFailures: 3, ResetTimeout: time.Minute}, logger),
			cfg.TTSTimeout,
			logger,
		)
		engineOpts = append(engineOpts, chat.WithSpeaker(speaker))
	}

	chatEngine := chat.NewEngine(store, cls, aggregator, memMgr, langMgr, logger, engineOpts...)

	// Reminders fire into open chat windows and the log
	hub := ws.NewHub(logger)
	schedOpts := []reminder.Option{
		reminder.WithDefaultSound(cfg.ReminderSound),
		reminder.WithNotifiers(hub, reminder.LogNotifier{Logger: logger}),
	}
	if cfg.PersistReminders() {
		database, err := db.New(db.Config{
			URL:             cfg.DatabaseURL,
			MaxConnections:  10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
		logger.Info("✅ database connected")
		schedOpts = append(schedOpts, reminder.WithStore(database))
	}
	scheduler := reminder.NewScheduler(logger, schedOpts...)
	if cfg.PersistReminders() {
		n, err := scheduler.Restore(ctx)
		if err != nil {
			logger.Error("failed to restore reminders", zap.Error(err))
		} else {
			logger.Info("reminders restored", zap.Int("count", n))
		}
	}

	tipRotator := tips.NewRotator()
	wsHandler := ws.NewChatHandler(chatEngine, hub, scheduler, tipRotator, ws.Config{
		TipInterval:       cfg.TipInterval,
		VoiceDefault:      cfg.VoiceEnabled,
		MessagesPerMinute: cfg.WSMessagesPerMin,
	}, logger)

	handlers := api.Handlers{
		Catalog:   api.NewCatalogHandler(store, logger),
		Chat:      api.NewChatHandler(chatEngine, aggregator.Options(), logger),
		Meta:      api.NewMetaHandler(langMgr, tipRotator),
		Reminders: api.NewReminderHandler(scheduler, logger),
		WebSocket: wsHandler.HandleChat,
	}

	// Twilio Voice is optional
	if cfg.TwilioEnabled() {
		if cfg.PublicBaseURL == "" {
			logger.Warn("PUBLIC_BASE_URL is empty, Twilio signatures will not validate")
		}
		handlers.Voice = api.NewVoiceHandler(chatEngine, memMgr, langMgr, translator, logger)
		handlers.Signature = twilio.NewVoiceClient(twilio.VoiceConfig{
			AccountSID:  cfg.TwilioAccountSID,
			AuthToken:   cfg.TwilioAuthToken,
			PhoneNumber: cfg.TwilioPhoneNumber,
		})
		handlers.PublicBaseURL = cfg.PublicBaseURL
		logger.Info("✅ Twilio Voice initialized", zap.String("number", cfg.TwilioPhoneNumber))
	}

	router := api.NewRouter(handlers, api.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(ctx, cfg.RateLimitPerMin, cfg.RateLimitBurst),
	}, logger)

	go reloadOnHangup(ctx, store, logger)
	go pruneSessions(ctx, memMgr, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("voice", handlers.Voice != nil),
			zap.Bool("persist_reminders", cfg.PersistReminders()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop()
	if speaker != nil {
		speaker.Wait()
	}

	logger.Info("server exited")
}

// reloadOnHangup re-reads the catalog on SIGHUP
func reloadOnHangup(ctx context.Context, store *catalog.Store, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading catalog")
			store.Reload(ctx) // failures are logged and keep the old snapshot
		}
	}
}

func pruneSessions(ctx context.Context, mem *memory.MemoryManager, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.PruneIdle(sessionIdleLimit); n > 0 {
				logger.Debug("pruned idle sessions", zap.Int("count", n))
			}
		}
	}
}
