package bootstrap

import (
	"context"
	"log"
	"time"

	"tutorium-be/internal/config"
	"tutorium-be/internal/controller"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/pkg/mailer"
	"tutorium-be/internal/repository/memory"
	"tutorium-be/internal/repository/unitofwork"
	"tutorium-be/internal/service"

	pktNats "tutorium-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	sweeperInterval  = 1 * time.Hour
	dispatchInterval = 5 * time.Second
)

type Container struct {
	// Controllers
	CancellationController controller.ICancellationController
	MakeupController       controller.IMakeupController
	BillingController      controller.IBillingController

	// Background workers (exposed for main.go to run)
	Sweeper    service.ISweeperService
	Dispatcher service.IOutboxDispatcher
	Consumer   service.INotificationConsumer

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sysClock := clock.NewSystem()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
	)

	// 2. Event bus (in-process leg of the outbox pipeline)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	var busPub service.EventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		busPub = natsPub
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	warningCache := memory.NewWarningCache()

	// 3. Services
	billingService := service.NewBillingService(uowFactory, cfg.Policy, sysClock, sysLogger)
	cancellationService := service.NewCancellationService(uowFactory, billingService, cfg.Policy, sysClock, sysLogger)
	makeupService := service.NewMakeupService(uowFactory, cfg.Policy, sysClock, sysLogger)

	sweeper := service.NewSweeperService(uowFactory, warningCache, rdb, cfg.Policy, sysClock, sysLogger, sweeperInterval)
	dispatcher := service.NewOutboxDispatcher(uowFactory, pubSub, sysClock, sysLogger, dispatchInterval)
	consumer := service.NewNotificationConsumer(uowFactory, pubSub, busPub, emailService, sysClock, sysLogger)

	// 4. Controllers
	return &Container{
		CancellationController: controller.NewCancellationController(cancellationService),
		MakeupController:       controller.NewMakeupController(makeupService),
		BillingController:      controller.NewBillingController(billingService),

		Sweeper:    sweeper,
		Dispatcher: dispatcher,
		Consumer:   consumer,

		Logger: sysLogger,
	}
}
