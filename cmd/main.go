package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	httpapi "github.com/playbud/booking/internal/api/http"
	"github.com/playbud/booking/internal/auth"
	"github.com/playbud/booking/internal/config"
	"github.com/playbud/booking/internal/notify"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/internal/repository/model"
	"github.com/playbud/booking/internal/service"
	"github.com/playbud/booking/internal/worker"
	"github.com/playbud/booking/lib/logger/sl"
	"github.com/playbud/booking/lib/logger/slogpretty"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("application stopped", sl.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStores(cfg, log)
	if err != nil {
		return err
	}

	mailer, err := notify.NewMailer(notify.MailerOptions{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		BaseURL:  cfg.Mail.BaseURL,
		Timeout:  cfg.Mail.Timeout,
	}, log)
	if err != nil {
		return err
	}
	if !mailer.Enabled() {
		log.Warn("smtp not configured, emails will be skipped")
	}
	dispatch := notify.NewRouter(mailer, notify.NewLogPush(log))
	async := notify.NewAsync(dispatch, cfg.Notify.Workers, cfg.Notify.QueueSize, log)
	defer async.Close()

	notifier := service.NewNotifier(async, repos.users, repos.organizers, repos.milestones, repos.reminders, log,
		service.WithReminderLead(cfg.Booking.ReminderLead),
	)
	roster := service.NewRosterHub(0, log)

	userService := service.NewUserService(repos.users, repos.organizers, notifier, log)
	gameService := service.NewGameService(repos.games, repos.organizers, notifier, log)
	bookingService := service.NewBookingService(repos.games, repos.bookings, repos.users, notifier, roster, log,
		service.WithJoinBuffer(cfg.Booking.JoinBuffer),
		service.WithMaxNotes(cfg.Booking.MaxNotes),
	)

	tokens, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	router := httpapi.SetupRouter(httpapi.Controllers{
		Users:    httpapi.NewUserController(userService, bookingService, gameService),
		Games:    httpapi.NewGameController(gameService, bookingService),
		Bookings: httpapi.NewBookingController(bookingService),
		Roster:   httpapi.NewRosterController(gameService, roster, cfg.HTTP.AllowedOrigins, log),
		Admin:    httpapi.NewAdminController(service.NewAdminService(gameService, bookingService, repos.users, repos.organizers, log)),
	}, httpapi.NewAuthenticator(tokens, userService, cfg.Auth.AdminEmails, log), cfg.HTTP.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	reminders := worker.NewReminderWorker(repos.reminders, repos.games, dispatch, worker.ReminderOptions{
		Interval:    cfg.Reminders.PollInterval,
		BatchSize:   cfg.Reminders.BatchSize,
		Lease:       cfg.Reminders.Lease,
		MaxAttempts: cfg.Reminders.MaxAttempts,
		RetryBase:   cfg.Reminders.RetryBase,
		RetryMax:    cfg.Reminders.RetryMax,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reminders.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type stores struct {
	games      repository.GameRepository
	bookings   repository.BookingRepository
	users      repository.UserRepository
	organizers repository.OrganizerRepository
	reminders  repository.ReminderRepository
	milestones repository.MilestoneRepository
}

// openStores uses postgres when a DSN is configured and the in-memory store
// otherwise.
func openStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Database.DSN == "" {
		log.Warn("database dsn is empty, using in-memory store")
		games := repository.NewInMemoryGameRepository()
		return &stores{
			games:      games,
			bookings:   repository.NewInMemoryBookingRepository(games),
			users:      repository.NewInMemoryUserRepository(),
			organizers: repository.NewInMemoryOrganizerRepository(),
			reminders:  repository.NewInMemoryReminderRepository(),
			milestones: repository.NewInMemoryMilestoneRepository(),
		}, nil
	}

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	policy := repository.RetryPolicy{
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		MaxElapsed:      cfg.Retry.MaxElapsed,
	}
	return &stores{
		games:      repository.NewRetryingGameRepository(repository.NewPostgresGameRepository(db), policy, log),
		bookings:   repository.NewRetryingBookingRepository(repository.NewPostgresBookingRepository(db), policy, log),
		users:      repository.NewRetryingUserRepository(repository.NewPostgresUserRepository(db), policy, log),
		organizers: repository.NewPostgresOrganizerRepository(db),
		reminders:  repository.NewPostgresReminderRepository(db),
		milestones: repository.NewPostgresMilestoneRepository(db),
	}, nil
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
