package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/travelmind/booking/cache/redis"
	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/queue"
	"github.com/travelmind/booking/repository/postgres"
	"github.com/travelmind/booking/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter wires the whole service: database, cache, services, handlers
// and the outbox dispatcher. The dispatcher is returned so main can run it
// next to the HTTP server and stop it on shutdown.
func SetupRouter(cfg *config.Config, log *zap.SugaredLogger) (*gin.Engine, *queue.Dispatcher, error) {
	db, err := postgres.Open(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	cacheRepo, err := redis.NewRedisCacheRepository(cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}

	return setupRouter(cfg, db, cacheRepo, log)
}

func setupRouter(cfg *config.Config, db *gorm.DB, cacheRepo *redis.RedisCacheRepository, log *zap.SugaredLogger) (*gin.Engine, *queue.Dispatcher, error) {
	bookingRepo := postgres.NewBookingRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	availabilityTTL := time.Duration(cfg.Redis.AvailabilityTTLSeconds) * time.Second
	bookingService := service.NewBookingService(db, bookingRepo, roomRepo, availabilityRepo, outboxRepo, cacheRepo, availabilityTTL, log)
	paymentService := service.NewPaymentService(db, paymentRepo, bookingRepo, outboxRepo, cfg.Payment, log)

	publisher, err := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	bridge := queue.NewEventBridge(bookingRepo, roomRepo, log)
	dispatcher := queue.NewDispatcher(outboxRepo, bridge, publisher, cfg.Outbox, log)

	jwtService := NewJWTService(cfg.JWTSecret)
	bookingHandler := NewBookingHandler(bookingService, cacheRepo)
	paymentHandler := NewPaymentHandler(paymentService)

	r := gin.Default()

	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware(log))

	// Health check endpoint (no auth required)
	r.GET("/health", bookingHandler.HealthCheck)

	api := r.Group("/api")

	// Pre-flight availability is public
	api.GET("/rooms/:roomId/availability", bookingHandler.CheckAvailability)

	// Protected endpoints (require authentication)
	protected := api.Group("")
	protected.Use(AuthMiddleware(jwtService))

	protected.POST("/bookings", bookingHandler.CreateBooking)
	protected.GET("/bookings", bookingHandler.ListUserBookings)
	protected.GET("/bookings/:bookingId", bookingHandler.GetBooking)
	protected.PATCH("/bookings/:bookingId/cancel", bookingHandler.CancelBooking)
	protected.DELETE("/bookings/:bookingId", bookingHandler.DeleteBooking)

	protected.POST("/payments/initiate/:bookingId", paymentHandler.InitiatePayment)
	protected.POST("/payments/confirm/:transactionId", paymentHandler.ConfirmPayment)

	return r, dispatcher, nil
}
