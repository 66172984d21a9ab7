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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"driveshare/internal/app/commands"
	availabilityapp "driveshare/internal/app/handlers/availability"
	bookingapp "driveshare/internal/app/handlers/booking"
	pricingapp "driveshare/internal/app/handlers/pricing"
	vehiclesapp "driveshare/internal/app/handlers/vehicles"
	"driveshare/internal/app/middleware"
	appoutbox "driveshare/internal/app/outbox"
	"driveshare/internal/app/queries"
	"driveshare/internal/app/uow"
	domainavailability "driveshare/internal/domain/availability"
	domainvehicles "driveshare/internal/domain/vehicles"
	"driveshare/internal/infra/broker/kafka"
	"driveshare/internal/infra/config"
	dbmongo "driveshare/internal/infra/db/mongo"
	ginserver "driveshare/internal/infra/http/gin"
	"driveshare/internal/infra/obs"
	infraoutbox "driveshare/internal/infra/outbox"
	"driveshare/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.StorageMode = "memory"
		cfg.LoadFixtures = true
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.LoadFixtures {
		fixturesPath := getenv("VEHICLE_FIXTURES", "")
		if fixturesPath == "" {
			fixturesPath = defaultVehicleFixturesPath()
		}
		if err := app.loadVehicleFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("vehicle fixtures load failed", "error", err, "path", fixturesPath)
		}
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
	vehicles domainvehicles.Repository
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory   uow.UoWFactory
		vehiclesRepo domainvehicles.Repository
		reserveStore domainavailability.ReserveStore
		outboxStore  appoutbox.Outbox
		idStore      middleware.IdempotencyStore
		ready        func() error
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		vehicles := dbmongo.NewVehicleRepository(client.DB)
		reservations := dbmongo.NewReservationRepository(client.DB)
		calendars := dbmongo.NewCalendarRepository(client.DB)
		vehiclesRepo = vehicles
		reserveStore = dbmongo.NewReserveStore(calendars, reservations)
		uowFactory = dbmongo.Factory{
			DB:               client.DB,
			VehiclesRepo:     vehicles,
			AvailabilityRepo: calendars,
			ReservationsRepo: reservations,
		}
		idStore = dbmongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		worker := &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	default:
		vehicles := memory.NewVehicleRepository()
		reservations := memory.NewReservationRepository()
		calendars := memory.NewCalendarRepository()
		vehiclesRepo = vehicles
		reserveStore = memory.NewReserveStore(calendars, reservations)
		uowFactory = memory.Factory{
			VehiclesRepo:     vehicles,
			AvailabilityRepo: calendars,
			ReservationsRepo: reservations,
		}
		idStore = memory.NewIdempotencyStore()
		outboxStore = memory.NewOutbox()
		ready = func() error { return nil }
	}

	guard := domainavailability.NewGuard(reserveStore)
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Guard:      guard,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Store:      reserveStore,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, availabilityapp.BlockWindowCommand{}.Key(), &availabilityapp.BlockWindowHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, availabilityapp.UnblockWindowCommand{}.Key(), &availabilityapp.UnblockWindowHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{Guard: guard})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, pricingapp.GetQuoteQuery{}.Key(), &pricingapp.GetQuoteHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, vehiclesapp.SearchCatalogQuery{}.Key(), &vehiclesapp.SearchCatalogHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, vehiclesapp.GetVehicleQuery{}.Key(), &vehiclesapp.GetVehicleHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return application{
		handlers: ginserver.Handlers{
			Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware},
			Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
			Vehicle:      ginserver.VehicleHandler{Queries: queryBusWithMiddleware},
			Host:         ginserver.HostHandler{Commands: commandBusWithMiddleware},
			Me:           ginserver.MeHandler{Queries: queryBusWithMiddleware},
		},
		vehicles: vehiclesRepo,
		ready:    ready,
	}, nil
}

func (a application) loadVehicleFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("vehicle fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("vehicle fixtures file empty", "path", path)
		return nil
	}

	var fixtures []vehicleFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	now := time.Now()
	for _, fx := range fixtures {
		params := domainvehicles.CreateParams{
			ID:           domainvehicles.VehicleID(fx.ID),
			Host:         domainvehicles.HostID(fx.Host),
			Title:        fx.Title,
			Description:  fx.Description,
			Make:         fx.Make,
			Model:        fx.Model,
			Year:         fx.Year,
			Plate:        fx.Plate,
			Class:        fx.Class,
			Seats:        fx.Seats,
			Transmission: fx.Transmission,
			Address: domainvehicles.Address{
				Line1:   fx.Address.Line1,
				City:    fx.Address.City,
				Country: fx.Address.Country,
				Lat:     fx.Address.Lat,
				Lon:     fx.Address.Lon,
			},
			Currency:            fx.Currency,
			DailyRateCents:      fx.DailyRateCents,
			WeeklyTotalCents:    fx.WeeklyTotalCents,
			MonthlyTotalCents:   fx.MonthlyTotalCents,
			InsuranceDailyCents: fx.InsuranceDailyCents,
			MinTripDays:         fx.MinTripDays,
			Approval:            domainvehicles.ApprovalPolicy(fx.Approval),
			Tags:                append([]string(nil), fx.Tags...),
			Photos:              append([]string(nil), fx.Photos...),
			AvailableFrom:       parseFixtureTime(fx.AvailableFrom, now),
			Now:                 now,
		}

		vehicle, err := domainvehicles.NewVehicle(params)
		if err != nil {
			logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		if err := vehicle.Activate(now); err != nil {
			logger.Error("fixture activation failed", "vehicle_id", fx.ID, "error", err)
			continue
		}
		if err := a.vehicles.Save(ctx, vehicle); err != nil {
			logger.Error("cannot store fixture vehicle", "vehicle_id", fx.ID, "error", err)
			continue
		}
		logger.Info("vehicle fixture imported", "vehicle_id", vehicle.ID)
	}
	return nil
}

type vehicleFixture struct {
	ID                  string         `json:"id"`
	Host                string         `json:"host"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Make                string         `json:"make"`
	Model               string         `json:"model"`
	Year                int            `json:"year"`
	Plate               string         `json:"plate"`
	Class               string         `json:"class"`
	Seats               int            `json:"seats"`
	Transmission        string         `json:"transmission"`
	Address             fixtureAddress `json:"address"`
	Currency            string         `json:"currency"`
	DailyRateCents      int64          `json:"daily_rate_cents"`
	WeeklyTotalCents    int64          `json:"weekly_total_cents"`
	MonthlyTotalCents   int64          `json:"monthly_total_cents"`
	InsuranceDailyCents int64          `json:"insurance_daily_cents"`
	MinTripDays         int            `json:"min_trip_days"`
	Approval            string         `json:"approval"`
	Tags                []string       `json:"tags"`
	Photos              []string       `json:"photos"`
	AvailableFrom       string         `json:"available_from"`
}

type fixtureAddress struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func parseFixtureTime(value string, fallback time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}

func defaultVehicleFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "vehicles.json"),
		filepath.Join("..", "data", "vehicles.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
