package postgres

import (
	"errors"
	"fmt"

	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

// PostgresRoomRepository reads room/hotel catalog rows owned by the hotel
// service. The booking core never writes them.
type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) GetByID(roomID string) (*model.Room, error) {
	var room model.Room
	err := r.db.Where("id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("room not found")
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}
