package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/fleetops/services/scheduler/config"
	"example.com/fleetops/services/scheduler/internal/cache"
	"example.com/fleetops/services/scheduler/internal/database"
	"example.com/fleetops/services/scheduler/internal/messaging"
	"example.com/fleetops/services/scheduler/internal/repository"
	"example.com/fleetops/services/scheduler/internal/search"
	"example.com/fleetops/services/scheduler/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that consumes trip-execution events from
Azure Service Bus and periodically expires stale pending shifts.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	gormDB, err := db.DB()
	if err != nil {
		return err
	}

	// Initialize cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Redis cache, continuing without caching")
		redisClient = nil
	}

	// Initialize Elasticsearch client (nil when disabled)
	esClient, err := search.NewElasticClient(cfg.Elastic, log)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Elasticsearch client, continuing without audit indexing")
	}

	// Initialize Azure Service Bus client
	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus, "scheduler-worker", log)
	if err != nil {
		return err
	}
	defer busClient.Close()

	// Initialize the service layer
	svc, err := service.NewService(service.ServiceConfig{
		ShiftRepository:    repository.NewShiftRepository(gormDB),
		TemplateRepository: repository.NewTemplateRepository(gormDB),
		ReferenceRepo:      repository.NewReferenceRepository(gormDB),
		Cache:              redisClient,
		MessagingClient:    busClient,
		ElasticClient:      esClient,
		Logger:             log,
	})
	if err != nil {
		return err
	}

	// Start the trip event processor
	g.Go(func() error {
		log.WithField("queue", cfg.ServiceBus.TripEventsQueue).Info("Starting trip event processor")
		return busClient.ProcessMessages(ctx, svc.ProcessTripEvent)
	})

	// Start the expiry sweep cron job. Lazy expiry on read already hides
	// stale pending shifts, the sweep persists that state.
	g.Go(func() error {
		interval := time.Duration(cfg.Worker.ExpirySweepMinutes) * time.Minute
		log.WithField("interval", interval.String()).Info("Starting expiry sweep job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				count, err := svc.SweepExpired(ctx)
				if err != nil {
					log.WithError(err).Error("Expiry sweep failed")
					return
				}
				if count > 0 {
					log.WithField("expired", count).Info("Expired stale pending shifts")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Error("Worker error")
		return err
	}

	log.Info("Worker shutting down gracefully")
	return nil
}
