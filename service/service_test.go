package service

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/model"
	"github.com/travelmind/booking/repository/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeCache is an in-memory CacheRepository that records invalidations.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]bool
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]bool)}
}

func cacheKey(roomID string, checkIn, checkOut time.Time) string {
	return roomID + ":" + checkIn.Format("2006-01-02") + ":" + checkOut.Format("2006-01-02")
}

func (f *fakeCache) GetAvailability(roomID string, checkIn, checkOut time.Time) (*bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.entries[cacheKey(roomID, checkIn, checkOut)]; ok {
		return &v, nil
	}
	return nil, nil
}

func (f *fakeCache) SetAvailability(roomID string, checkIn, checkOut time.Time, available bool, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[cacheKey(roomID, checkIn, checkOut)] = available
	return nil
}

func (f *fakeCache) InvalidateRoom(roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, roomID)
	for key := range f.entries {
		if len(key) >= len(roomID) && key[:len(roomID)] == roomID {
			delete(f.entries, key)
		}
	}
	return nil
}

func (f *fakeCache) Ping() error { return nil }

// testEnv wires the services against an in-memory database.
type testEnv struct {
	db       *gorm.DB
	cache    *fakeCache
	bookings *BookingService
	payments *PaymentService
	outbox   *postgres.PostgresOutboxRepository
	room     *model.Room
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	err = db.Callback().Query().Before("gorm:query").Register("test:strip_for_update", func(d *gorm.DB) {
		delete(d.Statement.Clauses, "FOR")
	})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))

	room := &model.Room{
		ID:        uuid.NewString(),
		HotelID:   uuid.NewString(),
		HotelName: "Harbor View Hotel",
		Name:      "Deluxe King",
		Price:     140,
		Currency:  "USD",
		MaxGuests: 3,
		IsActive:  true,
	}
	require.NoError(t, db.Create(room).Error)

	bookingRepo := postgres.NewBookingRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	cache := newFakeCache()
	log := zap.NewNop().Sugar()

	account := config.Payment{
		BankName:      "LianLian Bank",
		AccountName:   "Travelmind Escrow",
		AccountNumber: "8600-1422-0017",
	}

	return &testEnv{
		db:       db,
		cache:    cache,
		bookings: NewBookingService(db, bookingRepo, roomRepo, availabilityRepo, outboxRepo, cache, time.Minute, log),
		payments: NewPaymentService(db, paymentRepo, bookingRepo, outboxRepo, account, log),
		outbox:   outboxRepo,
		room:     room,
	}
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func (e *testEnv) createParams(userID string) CreateBookingParams {
	return CreateBookingParams{
		UserID:     userID,
		RoomID:     e.room.ID,
		CheckIn:    day(2026, 3, 15),
		CheckOut:   day(2026, 3, 18),
		Guests:     2,
		TotalPrice: 420,
	}
}
