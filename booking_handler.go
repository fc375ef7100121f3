package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/cache"
	"github.com/travelmind/booking/model"
	"github.com/travelmind/booking/service"
)

type BookingHandler struct {
	bookings *service.BookingService
	cache    cache.CacheRepository
}

func NewBookingHandler(bookings *service.BookingService, cacheRepo cache.CacheRepository) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		cache:    cacheRepo,
	}
}

// respondError maps application errors to HTTP in one place.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, model.ErrorResponse{
			Error:   appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Error:   "internal_error",
		Message: "Something went wrong",
	})
}

func currentUser(c *gin.Context) (userID, role string) {
	userID = c.GetString("user_id")
	role = c.GetString("user_role")
	return userID, role
}

// CreateBooking handles booking creation
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return
	}

	checkIn, err := model.ParseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_date",
			Message: "check_in must be formatted as YYYY-MM-DD",
		})
		return
	}
	checkOut, err := model.ParseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_date",
			Message: "check_out must be formatted as YYYY-MM-DD",
		})
		return
	}

	userID, _ := currentUser(c)
	booking, err := h.bookings.Create(c.Request.Context(), service.CreateBookingParams{
		UserID:          userID,
		RoomID:          req.RoomID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		TotalPrice:      req.TotalPrice,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking.ToResponse())
}

// GetBooking returns a single booking for its owner or an admin
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, role := currentUser(c)
	booking, err := h.bookings.Get(c.Param("bookingId"), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking.ToResponse())
}

// ListUserBookings returns the caller's bookings, newest first
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	userID, _ := currentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, total, err := h.bookings.List(userID, model.BookingFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := model.UserBookingsResponse{
		Bookings: make([]model.BookingResponse, 0, len(bookings)),
		Total:    total,
	}
	for i := range bookings {
		response.Bookings = append(response.Bookings, bookings[i].ToResponse())
	}
	c.JSON(http.StatusOK, response)
}

// CancelBooking cancels a booking and releases its dates
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, role := currentUser(c)
	booking, err := h.bookings.Cancel(c.Request.Context(), c.Param("bookingId"), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking.ToResponse())
}

// DeleteBooking removes a non-confirmed booking
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	userID, role := currentUser(c)
	if err := h.bookings.Delete(c.Request.Context(), c.Param("bookingId"), userID, role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailability is the advisory pre-flight availability endpoint
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	roomID := c.Param("roomId")

	checkIn, err := model.ParseDate(c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_date",
			Message: "check_in must be formatted as YYYY-MM-DD",
		})
		return
	}
	checkOut, err := model.ParseDate(c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_date",
			Message: "check_out must be formatted as YYYY-MM-DD",
		})
		return
	}

	available, err := h.bookings.CheckAvailability(roomID, checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.AvailabilityResponse{
		RoomID:    roomID,
		CheckIn:   c.Query("check_in"),
		CheckOut:  c.Query("check_out"),
		Available: available,
	})
}

// HealthCheck returns service health including dependency status
func (h *BookingHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK

	if sqlDB, err := h.bookings.DB().DB(); err != nil || sqlDB.Ping() != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else if err := h.cache.Ping(); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, model.HealthResponse{
		Status:    status,
		Service:   "booking-service",
		Timestamp: time.Now(),
	})
}
