package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelmind/booking/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// InitiatePayment issues a transaction reference and the settlement account
// details for a pending booking. Re-initiating replaces the reference.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID, role := currentUser(c)
	instructions, err := h.payments.Initiate(c.Request.Context(), c.Param("bookingId"), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, instructions)
}

// ConfirmPayment settles the referenced payment and confirms its booking.
// Safe to call repeatedly with the same reference.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	result, err := h.payments.Confirm(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
