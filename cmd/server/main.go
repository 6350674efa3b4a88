// cmd/server/main.go
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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/controller"
	"github.com/unclebandit/groundzero-backend/internal/db"
	"github.com/unclebandit/groundzero-backend/internal/feed"
	"github.com/unclebandit/groundzero-backend/internal/handler"
	"github.com/unclebandit/groundzero-backend/internal/httpclient"
	"github.com/unclebandit/groundzero-backend/internal/lock"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/mail"
	"github.com/unclebandit/groundzero-backend/internal/middleware"
	"github.com/unclebandit/groundzero-backend/internal/queue"
	"github.com/unclebandit/groundzero-backend/internal/repository"
	"github.com/unclebandit/groundzero-backend/internal/service"
	"github.com/unclebandit/groundzero-backend/internal/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ failed to load config:", err)
	}
	appLog := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
		WithFields(map[string]interface{}{"app": cfg.App.Name, "env": cfg.App.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error("❌ server exited", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	sqlDB, err := db.Open(ctx, cfg.Database, appLog)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	campaignRepo := &repository.CampaignRepository{DB: sqlDB}
	sendRepo := &repository.SendRepository{DB: sqlDB}
	subscriberRepo := &repository.SubscriberRepository{DB: sqlDB}
	submissionRepo := &repository.SubmissionRepository{DB: sqlDB}

	mailer, err := mail.NewSender(ctx, cfg.Mail, appLog)
	if err != nil {
		return err
	}

	dispatcher := service.NewDispatchService(campaignRepo, sendRepo, subscriberRepo, mailer, appLog)
	dispatcher.BatchSize = cfg.Newsletter.BatchSize
	dispatcher.BatchDelay = cfg.Newsletter.BatchDelay

	redisClient, err := db.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		dispatcher.Locker = lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL)
		appLog.Info("🔒 dispatch lock enabled", map[string]interface{}{"redis": cfg.Redis.Address})
	}

	reconciler := &service.ReconcileService{
		CampaignRepo: campaignRepo,
		SendRepo:     sendRepo,
		Log:          appLog,
		StaleAfter:   cfg.Worker.StaleAfter,
	}

	// With a broker, cmd/worker reconciles. Without one, events and the
	// sweep stay in this process.
	if cfg.Queue.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.Name, appLog)
		if err != nil {
			return err
		}
		defer amqpQueue.Close()
		dispatcher.Events = &queue.Events{Queue: amqpQueue}
	} else {
		memQueue := queue.NewInMemoryQueue(appLog)
		defer memQueue.Wait()
		if err := queue.OnCampaignFinalized(ctx, memQueue, reconciler.HandleFinalized); err != nil {
			return err
		}
		dispatcher.Events = &queue.Events{Queue: memQueue}

		worker := service.NewWorker(reconciler, cfg.Worker.SweepInterval, cfg.Worker.SweepLimit, appLog)
		go worker.Start(ctx)
	}

	feedClient := httpclient.NewClient(cfg.Feed.Timeout, cfg.Feed.UserAgent)
	feedCache := feed.NewCache(feed.NewFetcher(feedClient, cfg.Feed.URL), appLog, feed.WithTTL(cfg.Feed.TTL))

	ytClient := youtube.NewClient(httpclient.NewClient(cfg.YouTube.Timeout, ""), cfg.YouTube.BaseURL, cfg.YouTube.APIKey)

	signups := &service.SignupService{Subscribers: subscriberRepo, Submissions: submissionRepo, Log: appLog}

	newsletterController := &controller.NewsletterController{Dispatcher: dispatcher, Log: appLog, Shutdown: ctx}
	feedController := &controller.FeedController{Feed: feedCache, Log: appLog}
	signupController := &controller.SignupController{Signups: signups, Log: appLog}
	youtubeController := &controller.YouTubeController{Videos: ytClient, Log: appLog}
	campaignHandler := handler.NewCampaignHandler(campaignRepo, sendRepo, appLog)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(appLog))
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public site routes
	r.Get("/api/posts", feedController.Posts)
	r.Get("/api/youtube", youtubeController.Playlist)
	r.Post("/api/newsletter/subscribe", signupController.Subscribe)
	r.Post("/api/launch-waitlist", signupController.JoinWaitlist)
	r.Post("/api/blog-submissions/submit", signupController.SubmitBlog)

	// Admin panel routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminOnly(cfg.Admin, appLog))
		r.Post("/api/email-newsletter/send", newsletterController.Send)
		r.Get("/api/email-newsletter/campaigns", campaignHandler.ListCampaignsHandler)
		r.Get("/api/email-newsletter/campaigns/{campaignId}/sends", campaignHandler.GetCampaignSendsHandler)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("🚀 Server running", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("🛑 shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
