package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/model"
)

func TestInitiatePaymentReturnsInstructions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	instructions, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)
	assert.NotEmpty(t, instructions.TransactionID)
	assert.Equal(t, booking.TotalPrice, instructions.Amount)
	assert.Equal(t, "USD", instructions.Currency)
	assert.Equal(t, "LianLian Bank", instructions.BankName)
	assert.Equal(t, "Travelmind Escrow", instructions.AccountName)
	assert.Equal(t, "8600-1422-0017", instructions.AccountNumber)
}

func TestInitiatePaymentReplacesReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	first, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)
	second, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)
	require.NotEqual(t, first.TransactionID, second.TransactionID)

	// The superseded reference no longer confirms anything.
	_, err = env.payments.Confirm(ctx, first.TransactionID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	result, err := env.payments.Confirm(ctx, second.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, string(model.BookingStatusConfirmed), result.BookingStatus)
}

func TestInitiatePaymentAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	_, err = env.payments.Initiate(ctx, booking.ID, "user-2", "USER")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.payments.Initiate(ctx, booking.ID, "user-2", RoleAdmin)
	require.NoError(t, err)
}

func TestInitiatePaymentRejectsCancelledBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	_, err = env.bookings.Cancel(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)

	_, err = env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestConfirmPaymentPairsStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	instructions, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)

	result, err := env.payments.Confirm(ctx, instructions.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, result.BookingID)
	assert.Equal(t, string(model.PaymentStatusSucceeded), result.PaymentStatus)
	assert.Equal(t, string(model.BookingStatusConfirmed), result.BookingStatus)

	// Both rows flipped together.
	var payment model.Payment
	require.NoError(t, env.db.Where("booking_id = ?", booking.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusSucceeded, payment.Status)

	got, err := env.bookings.Get(booking.ID, "user-1", "USER")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)

	count, err := env.outbox.CountByType(events.RKBookingConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	instructions, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)

	first, err := env.payments.Confirm(ctx, instructions.TransactionID)
	require.NoError(t, err)

	// The bank may deliver the callback more than once.
	second, err := env.payments.Confirm(ctx, instructions.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// No second confirmation event.
	count, err := env.outbox.CountByType(events.RKBookingConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConfirmPaymentUnknownReference(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.payments.Confirm(context.Background(), "txn_does_not_exist")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestInitiateAfterConfirmReportsCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking, err := env.bookings.Create(ctx, env.createParams("user-1"))
	require.NoError(t, err)

	instructions, err := env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	require.NoError(t, err)
	_, err = env.payments.Confirm(ctx, instructions.TransactionID)
	require.NoError(t, err)

	_, err = env.payments.Initiate(ctx, booking.ID, "user-1", "USER")
	assert.ErrorIs(t, err, apperror.ErrAlreadyCompleted)
}
