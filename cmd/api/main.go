package main

import (
	"context"
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"carbonmark/marketplace-backend/internal/auctions"
	"carbonmark/marketplace-backend/internal/config"
	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/escrow"
	"carbonmark/marketplace-backend/internal/events"
	"carbonmark/marketplace-backend/internal/gateway"
	"carbonmark/marketplace-backend/internal/issuers"
	"carbonmark/marketplace-backend/internal/listings"
	"carbonmark/marketplace-backend/internal/metastore"
	"carbonmark/marketplace-backend/internal/mirror"
	"carbonmark/marketplace-backend/internal/offers"
	"carbonmark/marketplace-backend/internal/oracle"
	"carbonmark/marketplace-backend/internal/platform"
	"carbonmark/marketplace-backend/internal/registry"
	"carbonmark/marketplace-backend/internal/retirement"
	"carbonmark/marketplace-backend/internal/treasury"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	// ---------------- EVENTS ----------------
	feed := events.NewFeed(cfg.Mirror.FeedSize)
	hub := events.NewHub(logger)
	emitter := events.Multi{events.NewLogEmitter(logger), feed, hub}

	// ---------------- CORE ----------------
	ledger := core.NewLedger()
	platformCfg := platform.NewConfig(ledger, platform.Params{
		Owner:        cfg.Platform.Owner,
		FeeBps:       cfg.Platform.FeeBps,
		FeeRecipient: cfg.Platform.FeeRecipient,
		Assets:       cfg.Platform.Assets,
	}, emitter, logger)
	book := treasury.NewBook(ledger, cfg.Platform.Owner, emitter, logger)
	escrowLedger := escrow.NewLedger(ledger, book, emitter, logger)
	registrySvc := registry.NewService(ledger, emitter, logger)
	issuersSvc := issuers.NewService(ledger, registrySvc, platformCfg, emitter, logger)
	listingsSvc := listings.NewService(ledger, registrySvc, escrowLedger, platformCfg, emitter, logger)
	auctionsSvc := auctions.NewService(ledger, registrySvc, escrowLedger, book, platformCfg, emitter, logger)
	offersSvc := offers.NewService(ledger, registrySvc, escrowLedger, platformCfg, emitter, logger)

	// ---------------- COLLABORATORS ----------------
	store, err := metastore.NewS3Store(context.Background(), cfg.Metastore.Bucket, cfg.Metastore.Prefix)
	if err != nil {
		log.Fatal("failed to init metadata store:", err)
	}
	retirementGen := retirement.NewGenerator(store)
	converter := oracle.NewConverter(&oracle.StaticFeed{Quotes: map[string]oracle.Quote{}}, cfg.Oracle.MaxQuoteAge)

	// ---------------- MIRROR ----------------
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Warn("analytics mirror unavailable, events will only be streamed", zap.Error(err))
	} else {
		repo, err := mirror.NewRepository(db)
		if err != nil {
			log.Fatal("failed to migrate mirror schema:", err)
		}
		flusher := mirror.NewFlusher(feed, repo, logger)
		if err := flusher.Start(cfg.Mirror.FlushSpec); err != nil {
			log.Fatal("failed to start mirror flusher:", err)
		}
		defer flusher.Stop()
	}

	// ---------------- HTTP ----------------
	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "API alive!"})
	})
	r.GET("/events/stream", func(c *gin.Context) {
		if err := hub.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("event stream upgrade failed", zap.Error(err))
		}
	})

	v1 := r.Group("/v1", gateway.Auth(cfg.Security.JWTSecret))
	registry.RegisterRoutes(v1, registry.NewHandler(registrySvc, retirementGen, logger))
	issuers.RegisterRoutes(v1, issuers.NewHandler(issuersSvc, logger))
	listings.RegisterRoutes(v1, listings.NewHandler(listingsSvc, logger))
	auctions.RegisterRoutes(v1, auctions.NewHandler(auctionsSvc, logger))
	offers.RegisterRoutes(v1, offers.NewHandler(offersSvc, logger))
	platform.RegisterRoutes(v1, platform.NewHandler(platformCfg, book, logger))
	oracle.RegisterRoutes(v1, oracle.NewHandler(converter))

	addr := cfg.Server.GetServerAddr()
	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}
