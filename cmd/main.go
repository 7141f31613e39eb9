package main

import (
	"github.com/jameshorton2486/kollect-it-sub006/internal/api"
	"github.com/jameshorton2486/kollect-it-sub006/internal/audit"
	"github.com/jameshorton2486/kollect-it-sub006/internal/catalog"
	"github.com/jameshorton2486/kollect-it-sub006/internal/claim"
	"github.com/jameshorton2486/kollect-it-sub006/internal/config"
	"github.com/jameshorton2486/kollect-it-sub006/internal/database"
	"github.com/jameshorton2486/kollect-it-sub006/internal/delivery"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
	"github.com/jameshorton2486/kollect-it-sub006/internal/scheduler"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	log := config.GetLogger()

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	catalogStore := catalog.NewGormStore(db)
	auditStore := audit.NewGormStore(db)

	// The claim coordinator is the engine's sole serialization point. A
	// single instance leases through the shared database; configuring Redis
	// switches to a cross-instance lease for multi-replica deployments.
	var claims claim.Coordinator
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		claims = claim.NewRedisCoordinator(rdb)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis claim coordinator")
	} else {
		claims = claim.NewGormCoordinator(db)
	}

	renderer, err := render.NewTemplateRenderer(render.NewSQLDataSource(db))
	if err != nil {
		log.Fatalf("Failed to build renderer: %v", err)
	}

	gateways := make(map[models.DeliveryChannel]delivery.Gateway)
	if cfg.Delivery.Email.SMTPHost != "" {
		gateways[models.ChannelEmail] = delivery.NewEmailGateway(
			cfg.Delivery.Email.SMTPHost,
			cfg.Delivery.Email.SMTPPort,
			cfg.Delivery.Email.From,
			cfg.Delivery.Email.Password,
		)
	}
	if cfg.Delivery.Slack.Token != "" {
		gateways[models.ChannelSlack] = delivery.NewSlackGateway(cfg.Delivery.Slack.Token)
	}
	if len(gateways) == 0 {
		log.Warn("no delivery gateways configured; every execution will fail and be audited as such")
	}

	executor := scheduler.NewExecutor(renderer, gateways, auditStore, catalogStore)
	evaluator := scheduler.NewEvaluator(catalogStore)
	driver := scheduler.NewDriver(evaluator, claims, executor,
		cfg.Scheduler.LeaseDuration,
		cfg.Scheduler.TickInterval,
		cfg.Scheduler.MaxConcurrent,
	)

	// Local mode drives due checks with an in-process tick loop. Hosted
	// mode leaves the loop off; the platform cron calls the trigger
	// endpoint instead, and both paths share RunOnce.
	if !cfg.Scheduler.Hosted {
		if err := driver.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer driver.Stop()
	} else {
		log.Info("hosted mode: tick loop disabled, external trigger only")
	}

	gate := api.NewTriggerGate(cfg.Trigger.APIKey, cfg.Trigger.MaxBodyBytes, cfg.Trigger.RatePerMinute)
	server := api.NewServer(driver, catalogStore, auditStore, gate, cfg.Server.JWTSecret)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
