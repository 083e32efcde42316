package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	listingapp "staybook/internal/app/handlers/listings"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	authsvc "staybook/internal/app/services/auth"
	"staybook/internal/app/uow"
	domainauth "staybook/internal/domain/auth"
	domainlistings "staybook/internal/domain/listings"
	domainuser "staybook/internal/domain/user"
	kafkabroker "staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
	redisstore "staybook/internal/infra/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
	worker   *infraoutbox.Worker
	closers  []func() error
}

func (a *application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

type storageSet struct {
	factory       uow.UoWFactory
	outboxPublish appoutbox.Outbox
	outboxDeliver infraoutbox.Store
	idempotency   middleware.IdempotencyStore
	users         domainuser.Repository
	sessions      domainauth.SessionStore
	listings      domainlistings.Repository
	ready         func() error
	closers       []func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RedisAddr != "" {
		redisStore := redisstore.NewIdempotencyStore(cfg.RedisAddr, cfg.IdempotencyTTL)
		storage.idempotency = redisStore
		storage.closers = append(storage.closers, redisStore.Close)
	}

	authService := &authsvc.Service{
		Users:      storage.users,
		Sessions:   storage.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	if removed, err := authService.SweepExpired(ctx); err != nil {
		logger.Warn("session sweep failed", "error", err)
	} else if removed > 0 {
		logger.Info("expired sessions removed", "count", removed)
	}

	if path := getenv("LISTINGS_FIXTURES", ""); path != "" {
		if err := loadListingFixtures(ctx, path, storage.listings, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", path)
		}
	}

	locks := bookingapp.NewListingLocks()
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: storage.factory,
		Locks:      locks,
		Outbox:     storage.outboxPublish,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: storage.factory,
		Outbox:     storage.outboxPublish,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RebuildLedgerCommand{}.Key(), &bookingapp.RebuildLedgerHandler{
		UoWFactory: storage.factory,
		Locks:      locks,
	})
	commands.RegisterHandler(commandBus, calendarapp.BlockDateCommand{}.Key(), &calendarapp.BlockDateHandler{UoWFactory: storage.factory})
	commands.RegisterHandler(commandBus, calendarapp.BlockRangeCommand{}.Key(), &calendarapp.BlockRangeHandler{UoWFactory: storage.factory})
	commands.RegisterHandler(commandBus, calendarapp.UnblockDateCommand{}.Key(), &calendarapp.UnblockDateHandler{UoWFactory: storage.factory})
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{UoWFactory: storage.factory})
	commands.RegisterHandler(commandBus, listingapp.UpdateListingCommand{}.Key(), &listingapp.UpdateListingHandler{UoWFactory: storage.factory})
	commands.RegisterHandler(commandBus, listingapp.DeleteListingCommand{}.Key(), &listingapp.DeleteListingHandler{UoWFactory: storage.factory})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: storage.factory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.ListListingBookingsQuery{}.Key(), &bookingapp.ListListingBookingsHandler{UoWFactory: storage.factory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.ListAllBookingsQuery{}.Key(), &bookingapp.ListAllBookingsHandler{UoWFactory: storage.factory, Logger: logger})
	queries.RegisterHandler(queryBus, calendarapp.UnavailabilityQuery{}.Key(), &calendarapp.UnavailabilityHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, calendarapp.BulkUnavailabilityQuery{}.Key(), &calendarapp.BulkUnavailabilityHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, calendarapp.CheckAvailabilityQuery{}.Key(), &calendarapp.CheckAvailabilityHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, listingapp.ListListingsQuery{}.Key(), &listingapp.ListListingsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, listingapp.HostListingsQuery{}.Key(), &listingapp.HostListingsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(queryBus, listingapp.SearchAvailableQuery{}.Key(), &listingapp.SearchAvailableHandler{UoWFactory: storage.factory})

	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(storage.idempotency, nil),
		middleware.Transaction(storage.factory, nil),
		middleware.OutboxFlush(storage.outboxPublish),
	)
	queryPipeline := middleware.ChainQueries(queryBus)

	app := &application{
		handlers: ginserver.Handlers{
			Booking:  ginserver.BookingHandler{Commands: commandPipeline, Queries: queryPipeline},
			Listing:  ginserver.ListingHandler{Commands: commandPipeline, Queries: queryPipeline},
			Calendar: ginserver.CalendarHandler{Commands: commandPipeline, Queries: queryPipeline},
			Auth:     ginserver.AuthHandler{Service: authService, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{
				Service: authService,
				Logger:  logger,
			}.Handle,
			RateLimiter: ginserver.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst).Middleware(),
		},
		ready:   storage.ready,
		closers: storage.closers,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, producer.Close)
		app.worker = &infraoutbox.Worker{
			Store:       storage.outboxDeliver,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		logger.Info("outbox worker configured", "brokers", cfg.KafkaBrokers, "interval", cfg.OutboxPollInterval)
	} else {
		logger.Info("kafka brokers not configured, events stay in the outbox")
	}

	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config) (storageSet, error) {
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storageSet{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return storageSet{}, fmt.Errorf("mongo indexes: %w", err)
		}
		store := infraoutbox.NewMongoStore(client.DB)
		listingsRepo := mongodb.NewListingRepository(client.DB)
		return storageSet{
			factory: mongodb.Factory{
				DB:           client.DB,
				ListingsRepo: listingsRepo,
				BookingRepo:  mongodb.NewBookingRepository(client.DB),
				LedgerRepo:   mongodb.NewLedgerRepository(client.DB),
			},
			outboxPublish: store,
			outboxDeliver: store,
			idempotency:   mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			users:         mongodb.NewUserRepository(client.DB),
			sessions:      mongodb.NewSessionStore(client.DB),
			listings:      listingsRepo,
			ready: func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx)
			},
		}, nil
	default:
		box := memory.NewOutbox()
		listingsRepo := memory.NewListingRepository()
		return storageSet{
			factory: memory.Factory{
				ListingsRepo: listingsRepo,
				BookingRepo:  memory.NewBookingRepository(),
				LedgerRepo:   memory.NewLedgerRepository(),
			},
			outboxPublish: box,
			outboxDeliver: box,
			idempotency:   memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			users:         memory.NewUserRepository(),
			sessions:      memory.NewSessionStore(),
			listings:      listingsRepo,
		}, nil
	}
}

type listingFixture struct {
	ID               string   `json:"id"`
	Host             string   `json:"host"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	GuestsLimit      int      `json:"guests_limit"`
	Bedrooms         int      `json:"bedrooms"`
	Bathrooms        int      `json:"bathrooms"`
	Amenities        []string `json:"amenities"`
	Images           []string `json:"images"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	NightlyRateCents int64    `json:"nightly_rate_cents"`
}

// loadListingFixtures seeds the listing repository from a JSON file. A
// missing file is not an error, which keeps the variable safe to set in
// every environment.
func loadListingFixtures(ctx context.Context, path string, repo domainlistings.Repository, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	now := time.Now()
	for _, fx := range fixtures {
		listing, err := domainlistings.New(domainlistings.CreateParams{
			ID:               domainlistings.ListingID(fx.ID),
			Host:             domainlistings.HostID(fx.Host),
			Title:            fx.Title,
			Description:      fx.Description,
			Location:         fx.Location,
			GuestsLimit:      fx.GuestsLimit,
			Bedrooms:         fx.Bedrooms,
			Bathrooms:        fx.Bathrooms,
			Amenities:        append([]string(nil), fx.Amenities...),
			Images:           append([]string(nil), fx.Images...),
			Lat:              fx.Lat,
			Lon:              fx.Lon,
			NightlyRateCents: fx.NightlyRateCents,
			Now:              now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
