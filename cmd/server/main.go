package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trailblaize/outreach-backend/internal/config"
	"github.com/trailblaize/outreach-backend/internal/controller"
	"github.com/trailblaize/outreach-backend/internal/db"
	"github.com/trailblaize/outreach-backend/internal/gateway"
	"github.com/trailblaize/outreach-backend/internal/lock"
	"github.com/trailblaize/outreach-backend/internal/queue"
	"github.com/trailblaize/outreach-backend/internal/repository"
	"github.com/trailblaize/outreach-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	contactRepo := &repository.ContactRepository{DB: database}
	lineRepo := &repository.LineRepository{DB: database}
	queueRepo := &repository.QueueRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}

	linqClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid gateway configuration")
	}
	locker := lock.NewLineLocker(redisClient, 0)
	classifier := service.NewClassifier(cfg.Outreach.DefaultClassification)

	assignService := &service.AssignService{
		ContactRepo: contactRepo,
		QueueRepo:   queueRepo,
		LineRepo:    lineRepo,
	}
	sendService := &service.SendService{
		ContactRepo: contactRepo,
		QueueRepo:   queueRepo,
		LineRepo:    lineRepo,
		Gateway:     linqClient,
		Locker:      locker,
	}
	verifyService := &service.VerifyService{
		ContactRepo: contactRepo,
		LineRepo:    lineRepo,
		Gateway:     linqClient,
	}
	pollService := &service.PollService{
		ContactRepo: contactRepo,
		LineRepo:    lineRepo,
		Gateway:     linqClient,
		Classifier:  classifier,
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		LineRepo:     lineRepo,
	}
	dashboardService := &service.DashboardService{
		QueueRepo: queueRepo,
		LineRepo:  lineRepo,
	}
	importService := &service.ImportService{ContactRepo: contactRepo}
	lineService := &service.LineService{LineRepo: lineRepo}

	runner := &service.JobRunner{
		Assign: assignService,
		Send:   sendService,
		Verify: verifyService,
		Poll:   pollService,
	}

	// With a broker configured, async jobs go to the worker process.
	// Otherwise they run in-process.
	var jobs queue.Queue
	if cfg.AMQPURL != "" {
		publisher, err := queue.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to job broker")
		}
		defer publisher.Close()
		jobs = publisher
	} else {
		inMem := queue.NewInMemoryQueue()
		queue.StartJobSubscriber(inMem, runner)
		jobs = inMem
	}

	outreachController := &controller.OutreachController{
		AssignService:    assignService,
		SendService:      sendService,
		VerifyService:    verifyService,
		PollService:      pollService,
		DashboardService: dashboardService,
		Jobs:             jobs,
	}
	campaignController := &controller.CampaignController{CampaignService: campaignService}
	lineController := &controller.LineController{LineService: lineService}
	contactController := &controller.ContactController{ImportService: importService}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Route("/outreach", func(r chi.Router) {
			r.Post("/assign", outreachController.AutoAssign)
			r.Post("/send-batch", outreachController.SendBatch)
			r.Post("/verify-channel", outreachController.VerifyChannels)
			r.Post("/poll-responses", outreachController.PollResponses)
			r.Post("/report", campaignController.ReportSend)
			r.Get("/dashboard", outreachController.Dashboard)
			r.Get("/queue", campaignController.TodaysQueue)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", campaignController.ListCampaigns)
			r.Post("/", campaignController.CreateCampaign)
			r.Patch("/{id}", campaignController.UpdateCampaign)
		})

		r.Route("/sending-lines", func(r chi.Router) {
			r.Get("/", lineController.ListLines)
			r.Post("/", lineController.CreateLine)
			r.Patch("/{id}", lineController.UpdateLine)
		})

		r.Post("/contacts/import", contactController.ImportContacts)
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("Server running")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
