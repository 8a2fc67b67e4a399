package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/trailblaize/outreach-backend/internal/config"
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

	linqClient, err := gateway.NewClient(cfg.Gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid gateway configuration")
	}
	locker := lock.NewLineLocker(redisClient, 0)
	classifier := service.NewClassifier(cfg.Outreach.DefaultClassification)

	runner := &service.JobRunner{
		Assign: &service.AssignService{
			ContactRepo: contactRepo,
			QueueRepo:   queueRepo,
			LineRepo:    lineRepo,
		},
		Send: &service.SendService{
			ContactRepo: contactRepo,
			QueueRepo:   queueRepo,
			LineRepo:    lineRepo,
			Gateway:     linqClient,
			Locker:      locker,
		},
		Verify: &service.VerifyService{
			ContactRepo: contactRepo,
			LineRepo:    lineRepo,
			Gateway:     linqClient,
		},
		Poll: &service.PollService{
			ContactRepo: contactRepo,
			LineRepo:    lineRepo,
			Gateway:     linqClient,
			Classifier:  classifier,
		},
	}

	if cfg.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL must be set for the worker")
	}
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open broker channel")
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.JobsQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to declare queue")
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack for retry handling
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register consumer")
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job service.OutreachJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Warn().Err(err).Msg("Invalid job payload, dropping")
				d.Ack(false)
				continue
			}

			if err := runner.Run(context.Background(), job); err != nil {
				retries := queue.RetryCount(d.Headers)
				log.Error().Err(err).Str("kind", job.Kind).Str("chapterID", job.ChapterID).
					Int32("retries", retries).Msg("Job failed")

				if retries < queue.MaxJobRetries {
					// Requeueing via Nack would keep the old header, so the
					// bumped counter goes out as a fresh publish.
					pubErr := ch.Publish("", q.Name, false, false, amqp.Publishing{
						ContentType: "application/json",
						Body:        d.Body,
						Headers:     queue.RetryHeaders(retries + 1),
					})
					if pubErr != nil {
						log.Error().Err(pubErr).Msg("Failed to republish job for retry")
						d.Nack(false, true)
						continue
					}
				} else {
					log.Error().Str("kind", job.Kind).Msg("Job permanently failed, dropping")
				}
			}

			d.Ack(false)
		}
	}()

	log.Info().Msg("Worker running, waiting for jobs")
	<-forever
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
