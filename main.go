package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"parking_reservation/internal/api"
	"parking_reservation/internal/api/handler"
	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/cache"
	"parking_reservation/internal/config"
	"parking_reservation/internal/jobs"
	"parking_reservation/internal/mail"
	"parking_reservation/internal/repository/postgresql"
	"parking_reservation/internal/service"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Database connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database.")

	// 3. Redis cache (optional: a failure only disables caching)
	var reportCache service.ReportCache
	redisCache, err := cache.NewCache(cfg)
	if err != nil {
		log.Printf("WARNING: redis unavailable, report caching disabled: %v", err)
	} else {
		defer redisCache.Close()
		reportCache = redisCache
		log.Println("Connected to redis.")
	}

	// 4. AWS clients and job queue
	var jobQueue jobs.JobQueue
	var sqsClient *sqs.Client
	if cfg.SQSQueueURL == "" {
		log.Println("WARNING: SQS_JOB_QUEUE_URL is not set. Notification jobs are disabled.")
	} else {
		awsSDKCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Could not load AWS SDK config: %v", err)
		}
		sqsClient = sqs.NewFromConfig(awsSDKCfg)
		jobQueue = jobs.NewSQSJobQueue(sqsClient, cfg.SQSQueueURL)
		log.Println("SQS job queue initialized for region", cfg.AWSRegion)
	}

	// 5. Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	spotRepo := postgresql.NewPgParkingSpotRepository(db)
	allocationStore := postgresql.NewPgAllocationStore(db)
	reportingRepo := postgresql.NewPgReportingRepository(db)

	// 6. WebSocket manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket manager started.")

	// 7. Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	allocationService := service.NewAllocationService(allocationStore, lotRepo, spotRepo, webSocketManager)
	reportingService := service.NewReportingService(reportingRepo, reportCache)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailSender)
	notificationService := service.NewNotificationService(userRepo, reportingRepo, mailer, cfg.MailDomain)

	// 8. Bootstrap admin account
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(bootstrapCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		cancelBootstrap()
		log.Fatalf("Could not ensure admin account: %v", err)
	}
	cancelBootstrap()

	// 9. Auth middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 10. SQS consumer and scheduler
	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	if jobQueue != nil {
		consumer := jobs.NewSQSConsumer(sqsClient, cfg.SQSQueueURL, notificationService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(workerCtx)
			log.Println("SQS consumer stopped.")
		}()

		scheduler := jobs.NewScheduler(jobQueue, cfg.ReminderHour)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(workerCtx)
			log.Println("Scheduler stopped.")
		}()
	}

	// 11. HTTP server
	router := api.SetupRouter(authService, allocationService, reportingService, jobQueue, authMiddleware, webSocketManager)
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelWorkers()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	if jobQueue != nil {
		log.Println("Waiting for background workers to stop (up to 5 seconds)...")
		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			log.Println("Background workers stopped.")
		case <-time.After(5 * time.Second):
			log.Println("Background workers did not stop in time.")
		}
	}

	log.Println("Server stopped.")
}
