package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ezyassist/internal/admin"
	"ezyassist/internal/audit"
	"ezyassist/internal/campaign"
	"ezyassist/internal/conversation"
	"ezyassist/internal/intent"
	"ezyassist/internal/knowledge"
	"ezyassist/internal/notify"
	"ezyassist/internal/platform/config"
	"ezyassist/internal/platform/database"
	"ezyassist/internal/platform/health"
	"ezyassist/internal/platform/kafka"
	"ezyassist/internal/platform/kafka/producer"
	"ezyassist/internal/platform/logger"
	"ezyassist/internal/platform/metrics"
	"ezyassist/internal/platform/middleware"
	"ezyassist/internal/platform/redis"
	"ezyassist/internal/registration/attachments"
	reghandler "ezyassist/internal/registration/handler"
	regmetrics "ezyassist/internal/registration/metrics"
	regservice "ezyassist/internal/registration/service"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/review"
	"ezyassist/internal/settings"
	"ezyassist/internal/transport/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ezyassist stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("ezyassist stopped")
}

// run wires every dependency and blocks until ctx is cancelled or a
// component fails.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	lang, ok := knowledge.ParseLanguage(cfg.Conversation.DefaultLanguage)
	if !ok {
		return fmt.Errorf("DEFAULT_LANGUAGE must be ms or en, got %q", cfg.Conversation.DefaultLanguage)
	}
	if cfg.Tokens.SigningKey == "" {
		log.Warn("JWT_SECRET_KEY not set, registration links cannot be issued")
	}

	log.Info("initializing ezyassist",
		"addr", cfg.Server.Addr,
		"base_url", cfg.Server.BaseURL,
		"language", lang,
		"engagement_threshold", cfg.Conversation.EngagementThreshold,
	)

	checks := health.New()

	db, err := database.New(ctx, database.DefaultConfig(cfg.Database.URL))
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // shutdown path
	if db != nil {
		checks.RegisterCheck("postgres", db.Health)
	}

	rc, err := redis.New(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close() //nolint:errcheck // shutdown path
		checks.RegisterCheck("redis", rc.Health)
	}

	kp, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
	if err != nil {
		return err
	}
	var sinks []audit.Sink
	if kp != nil {
		defer kp.Close() //nolint:errcheck // flushes pending audit records
		sinks = append(sinks, audit.NewKafkaSink(kp, cfg.Kafka.AuditTopic))
		checks.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
	}
	publisher := audit.NewPublisher(sinks, audit.WithPublisherLogger(log))
	defer publisher.Close()

	st, err := openStores(ctx, db, rc, cfg.Redis.EngagementTTL, log)
	if err != nil {
		return err
	}

	var sender notify.Sender
	var botAPI telegram.API
	if cfg.Telegram.BotToken != "" {
		api, err := telegram.Dial(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		botAPI = api
		sender = telegram.NewSender(api)
		log.Info("telegram bot authorized", "username", api.Self.UserName)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, chat transport and notifications are disabled")
	}
	notifier := notify.New(sender, cfg.Telegram.AdminChatID, log)

	tokens := regtoken.NewService(cfg.Tokens.SigningKey,
		regtoken.DefaultPolicy(cfg.Tokens.FormTimeout, cfg.Tokens.ResubmissionTTL),
		regtoken.WithLogger(log))
	links := regtoken.NewLinks(cfg.Server.BaseURL, tokens)
	regMetrics := regmetrics.New()

	settingsSvc := settings.New(st.settings,
		settings.Settings{EngagementThreshold: cfg.Conversation.EngagementThreshold, Language: lang},
		settings.WithAudit(st.audit),
		settings.WithLogger(log))

	campaignSvc := campaign.NewService(st.campaigns,
		campaign.WithRegistrations(st.registrations),
		campaign.WithLinks(links),
		campaign.WithAudit(st.audit, publisher),
		campaign.WithLogger(log))

	registrations := regservice.New(st.registrations, tokens, links,
		regservice.WithAuditPublisher(publisher),
		regservice.WithNotifier(notifier),
		regservice.WithCampaigns(campaignSvc),
		regservice.WithMetrics(regMetrics),
		regservice.WithLogger(log))

	reviewer := review.New(st.registrations, links, notifier,
		review.WithAuditPublisher(publisher),
		review.WithMetrics(regMetrics),
		review.WithResubmissionTTL(cfg.Tokens.ResubmissionTTL),
		review.WithLogger(log))

	generator, err := newGenerator(ctx, cfg.Generative, log)
	if err != nil {
		return err
	}
	faq := knowledge.DefaultFAQ()
	router := conversation.New(intent.New(faq), faq, links, generator,
		conversation.WithSettings(settingsSvc),
		conversation.WithDefaults(cfg.Conversation.EngagementThreshold, lang),
		conversation.WithRegistrations(registrations),
		conversation.WithCampaigns(campaignSvc),
		conversation.WithTimeout(cfg.Generative.Timeout),
		conversation.WithLinkTTL(cfg.Tokens.FormTimeout),
		conversation.WithMetrics(conversation.NewMetrics()),
		conversation.WithLogger(log))

	uploads, err := attachments.NewLocal(cfg.Server.UploadDir, cfg.Server.MaxUploadBytes)
	if err != nil {
		return err
	}

	auth := admin.NewAuthenticator(cfg.Admin.Username, cfg.Admin.PasswordHash, st.sessions,
		admin.WithSessionTTL(cfg.Admin.SessionTTL),
		admin.WithAuthLogger(log))
	if cfg.Admin.PasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ClientMetadata(cfg.Server.TrustProxy))
	r.Use(middleware.Logger(log))
	r.Use(metrics.New().Middleware)

	checks.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	reghandler.New(registrations, uploads, log).Register(r)
	admin.NewHandler(auth, registrations, reviewer, settingsSvc, log,
		admin.WithRoutes(campaign.NewHandler(campaignSvc, log)),
		admin.WithSecureCookies(strings.HasPrefix(cfg.Server.BaseURL, "https://")),
	).Register(r)

	g, ctx := errgroup.WithContext(ctx)

	if botAPI != nil {
		bot := telegram.New(botAPI, router, st.engagement,
			telegram.WithAdminChat(cfg.Telegram.AdminChatID),
			telegram.WithWorkers(cfg.Telegram.Workers),
			telegram.WithLogger(log))
		if cfg.Telegram.WebhookURL != "" {
			hook, err := webhookURL(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret)
			if err != nil {
				return err
			}
			if err := bot.SetWebhook(hook); err != nil {
				return err
			}
			telegram.NewWebhookHandler(bot, cfg.Telegram.WebhookSecret).Register(r)
			log.Info("telegram webhook registered", "path", telegram.WebhookPath)
		} else {
			g.Go(func() error { return bot.Run(ctx) })
		}
	}

	if rc != nil {
		g.Go(func() error {
			rc.RunPoolStats(ctx, 15*time.Second)
			return nil
		})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	g.Go(func() error {
		log.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newGenerator returns nil when no API key is configured, in which case
// open-ended questions get the fixed fallback reply.
func newGenerator(ctx context.Context, cfg config.Generative, log *slog.Logger) (conversation.Generator, error) {
	if cfg.APIKey == "" {
		log.Warn("GENAI_API_KEY not set, generative replies are disabled")
		return nil, nil
	}
	g, err := conversation.NewGenAI(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func webhookURL(raw, secret string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("TELEGRAM_WEBHOOK_URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
