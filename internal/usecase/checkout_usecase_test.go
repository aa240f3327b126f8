package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SessionFetcherMock struct{ mock.Mock }

func (m *SessionFetcherMock) FetchSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(CheckoutSession)
	return s, args.Error(1)
}

func paidSession(id string, md map[string]string) CheckoutSession {
	return CheckoutSession{
		ID:               id,
		PaymentStatus:    "paid",
		AmountTotalCents: 3500,
		Currency:         "usd",
		CustomerEmail:    "buyer@example.com",
		Metadata:         md,
	}
}

func newCheckout(t *testing.T) (*CheckoutUsecase, *SessionFetcherMock, *stack) {
	t.Helper()
	s := newStack(t)
	f := &SessionFetcherMock{}
	return NewCheckoutUsecase(f, s.ledger, time.Second, zerolog.Nop()), f, s
}

func TestCheckout_VerifyTwiceCreatesOneOrderAndDonation(t *testing.T) {
	ctx := context.Background()
	uc, f, s := newCheckout(t)
	cause := s.createCause(t, 0)

	f.On("FetchSession", mock.Anything, "cs_1").Return(paidSession("cs_1", map[string]string{
		"order_number":   "ORD-100",
		"product_name":   "Poster",
		"quantity":       "2",
		"donation_cents": "500",
		"cause_id":       "1",
		"cause_name":     "Clean Water",
	}), nil).Twice()

	first, err := uc.Verify(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{OK: true, OrderNumber: "ORD-100", SessionID: "cs_1"}, first)

	second, err := uc.Verify(ctx, " cs_1 ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int64(1), s.count(t, &model.Order{}))
	assert.Equal(t, int64(1), s.count(t, &model.Donation{}))
	assert.Equal(t, int64(500), s.raised(t, cause.ID))

	o, found, err := s.orders.FindBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.OrderStatusCompleted, o.Status)
	assert.Equal(t, int64(2), o.Quantity)
	assert.Equal(t, int64(3500), o.AmountTotalCents)
	assert.Equal(t, "Poster", o.ProductName)
	assert.Equal(t, "buyer@example.com", o.CustomerEmail)

	f.AssertExpectations(t)
}

func TestCheckout_FallbackOrderNumberIsStableAcrossRetries(t *testing.T) {
	ctx := context.Background()
	uc, f, _ := newCheckout(t)

	f.On("FetchSession", mock.Anything, "cs_2").Return(paidSession("cs_2", nil), nil)

	first, err := uc.Verify(ctx, "cs_2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.OrderNumber, "ORD-"))
	assert.Len(t, first.OrderNumber, 16)

	second, err := uc.Verify(ctx, "cs_2")
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
}

func TestCheckout_DonationAmountInMajorUnits(t *testing.T) {
	ctx := context.Background()
	uc, f, s := newCheckout(t)
	cause := s.createCause(t, 0)

	f.On("FetchSession", mock.Anything, "cs_3").Return(paidSession("cs_3", map[string]string{
		"donation_amount": "7.77",
		"cause_id":        "1",
		"quantity":        "zero",
	}), nil)

	_, err := uc.Verify(ctx, "cs_3")
	require.NoError(t, err)
	assert.Equal(t, int64(777), s.raised(t, cause.ID))
}

func TestCheckout_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty session id", func(t *testing.T) {
		uc, f, _ := newCheckout(t)
		_, err := uc.Verify(ctx, "  ")

		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		f.AssertNotCalled(t, "FetchSession", mock.Anything, mock.Anything)
	})

	t.Run("session not found", func(t *testing.T) {
		uc, f, s := newCheckout(t)
		f.On("FetchSession", mock.Anything, "cs_x").Return(CheckoutSession{}, ErrPaymentNotFound)

		_, err := uc.Verify(ctx, "cs_x")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
		assert.Equal(t, int64(0), s.count(t, &model.Order{}))

		he, ok := AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Status)
	})

	t.Run("not paid yet", func(t *testing.T) {
		uc, f, s := newCheckout(t)
		sess := paidSession("cs_u", nil)
		sess.PaymentStatus = "unpaid"
		f.On("FetchSession", mock.Anything, "cs_u").Return(sess, nil)

		_, err := uc.Verify(ctx, "cs_u")
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
		assert.Equal(t, int64(0), s.count(t, &model.Order{}))

		he, ok := AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusAccepted, he.Status)
	})

	t.Run("provider unavailable", func(t *testing.T) {
		uc, f, _ := newCheckout(t)
		f.On("FetchSession", mock.Anything, "cs_e").Return(CheckoutSession{}, errors.New("connection reset"))

		_, err := uc.Verify(ctx, "cs_e")
		he, ok := AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, he.Status)
	})
}

func TestCheckout_FetchUsesTimeout(t *testing.T) {
	uc, f, _ := newCheckout(t)

	f.On("FetchSession", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "cs_t").Return(CheckoutSession{}, ErrPaymentNotFound)

	_, err := uc.Verify(context.Background(), "cs_t")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	f.AssertExpectations(t)
}
