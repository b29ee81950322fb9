package main

import (
	"stayhub/internal/bookings/arbiter"
	bookinghandler "stayhub/internal/bookings/handler"
	bookingrepository "stayhub/internal/bookings/repository"
	bookingservice "stayhub/internal/bookings/service"
	bookingvalidator "stayhub/internal/bookings/validator"
	propertyhandler "stayhub/internal/properties/handler"
	propertyrepository "stayhub/internal/properties/repository"
	propertyservice "stayhub/internal/properties/service"
	propertyvalidator "stayhub/internal/properties/validator"
	"stayhub/pkg/app"
	"stayhub/pkg/cache"
	"stayhub/pkg/config"
	"stayhub/pkg/kafka"
	kafka_config "stayhub/pkg/kafka/config"
)

const ServiceName = "api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting StayHub API")

	bookingEvents, propertyEvents := initProducers(cfg)
	defer closeProducer(cfg, bookingEvents)
	defer closeProducer(cfg, propertyEvents)

	bookingSvc := initBookingService(cfg, bookingEvents)
	propertySvc := initPropertyService(cfg, propertyEvents)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		bookinghandler.NewBookingHandler(bookingSvc, cfg.Log),
		propertyhandler.NewPropertyHandler(propertySvc, cfg.Log),
	)
	serverApp.Run()
}

// initProducers builds the event producers, or returns nils when no Kafka
// brokers are configured.
func initProducers(cfg *config.Config) (*kafka.Producer, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	if kafkaCfg == nil {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
		return nil, nil
	}

	bookingEvents, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	propertyEvents, err := kafka.NewProducer(kafkaCfg, cfg.PropertyEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create property events producer", "error", err)
	}

	cfg.Log.Info("Kafka producers initialized",
		"booking_topic", cfg.BookingEventsTopic,
		"property_topic", cfg.PropertyEventsTopic,
	)
	return bookingEvents, propertyEvents
}

func closeProducer(cfg *config.Config, producer *kafka.Producer) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka producer", "error", err)
	}
}

func initBookingService(cfg *config.Config, events *kafka.Producer) bookingservice.BookingService {
	repo := bookingrepository.NewMongoBookingRepository(cfg)
	locks := bookingrepository.NewReservationLockRepository(cfg)
	arb := arbiter.New(cfg, repo, locks)
	v := bookingvalidator.NewBookingValidator(cfg.Log)

	var publisher bookingservice.EventPublisher
	if events != nil {
		publisher = events
	}

	svc := bookingservice.NewBookingService(cfg, repo, arb, v, publisher)
	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return svc
}

func initPropertyService(cfg *config.Config, events *kafka.Producer) propertyservice.PropertyService {
	repo := propertyrepository.NewMongoPropertyRepository(cfg)
	v := propertyvalidator.NewPropertyValidator(cfg.Log)
	propertyCache := cache.NewRedisPropertyCache(cfg.Client.Redis, cfg.PropertyCacheTTL)

	var publisher propertyservice.EventPublisher
	if events != nil {
		publisher = events
	}

	svc := propertyservice.NewPropertyService(cfg, repo, v, propertyCache, publisher)
	cfg.Log.Info("Property service initialized", "database", cfg.MongoDatabaseName)
	return svc
}
