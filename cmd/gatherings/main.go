package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/config"
	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/notify"
	"github.com/rjinka/family-potluck/internal/realtime"
	"github.com/rjinka/family-potluck/internal/reconcile"
	"github.com/rjinka/family-potluck/internal/rest"
	"github.com/rjinka/family-potluck/internal/session"
	"github.com/rjinka/family-potluck/pkg/logger"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting Gatherings client...")

	store, err := session.Open(cfg.SessionDBPath, log)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	if err := store.Migrate("migrations"); err != nil {
		log.Fatalf("Failed to migrate session store: %v", err)
	}

	client, err := rest.NewClient(cfg.APIOrigin, log)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}
	client.OnUnauthorized(func() {
		log.Warn("Session expired, clearing cached profile")
		if err := store.Clear(context.Background()); err != nil {
			log.WithError(err).Error("Failed to clear session")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	user, err := login(ctx, cfg, client, store, log)
	if err != nil {
		log.Fatalf("Failed to sign in: %v", err)
	}
	log.WithFields(logrus.Fields{
		"family_id": user.ID,
		"name":      user.Name,
	}).Info("Signed in")

	notifier := buildNotifier(cfg, log)

	dashboard := reconcile.NewDashboardView(client, user, notifier, log)
	defer dashboard.Close()
	if err := dashboard.RefreshGroups(ctx); err != nil {
		log.WithError(err).Error("Initial group fetch failed")
	}
	if err := dashboard.RefreshGroupEvents(ctx); err != nil {
		log.WithError(err).Error("Initial event fetch failed")
	}
	if err := dashboard.RefreshGuestEvents(ctx); err != nil {
		log.WithError(err).Error("Initial guest event fetch failed")
	}

	router := reconcile.NewRouter(notifier, cfg.RSVPDebounce, log)
	router.AttachDashboard(dashboard)

	channel := realtime.NewChannel(realtime.Options{
		Origin:    cfg.APIOrigin,
		Reconnect: cfg.Reconnect,
	}, router, log)
	defer channel.Close()

	go func() {
		if err := channel.Run(ctx); err != nil {
			log.WithError(err).Error("Push channel terminated")
		}
	}()

	// Start Prometheus metrics server
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Infof("Prometheus metrics available at :%s/metrics", cfg.PrometheusPort)
		if err := http.ListenAndServe(":"+cfg.PrometheusPort, nil); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	log.Info("Gatherings client is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("Shutting down...")
}

// login signs the user in: Google token when provided, dev login when an
// email is set, otherwise the profile cached from a previous run.
func login(ctx context.Context, cfg *config.Config, client *rest.Client, store *session.Store, log *logrus.Logger) (*models.FamilyMember, error) {
	if cfg.GoogleIDToken != "" {
		user, err := client.GoogleLogin(ctx, cfg.GoogleIDToken)
		if err != nil {
			return nil, err
		}
		if err := store.Save(ctx, user); err != nil {
			log.WithError(err).Warn("Failed to cache profile")
		}
		return user, nil
	}

	if cfg.LoginEmail != "" {
		user, err := client.DevLogin(ctx, cfg.LoginEmail, cfg.LoginName)
		if err != nil {
			return nil, err
		}
		if err := store.Save(ctx, user); err != nil {
			log.WithError(err).Warn("Failed to cache profile")
		}
		return user, nil
	}

	cached, err := store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, errors.New("no credentials configured and no cached session")
	}
	if err != nil {
		return nil, err
	}

	// Validate the cached cookie-less profile against the server; fall back
	// to it if the backend is briefly unreachable.
	user, err := client.Me(ctx)
	if err != nil {
		if rest.IsUnauthorized(err) {
			return nil, errors.New("cached session is no longer valid, set LOGIN_EMAIL or GOOGLE_ID_TOKEN")
		}
		log.WithError(err).Warn("Could not validate cached session, using it anyway")
		return cached, nil
	}
	return user, nil
}

// buildNotifier assembles the notification fan-out: the log always, plus
// Telegram when a token and chat id are configured.
func buildNotifier(cfg *config.Config, log *logrus.Logger) notify.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, log)
		if err != nil {
			log.WithError(err).Error("Failed to initialize Telegram notifier")
		} else {
			notifiers = append(notifiers, tn)
		}
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return notifiers
}
