package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DonationOnly(t *testing.T) {
	f := Fields{"submissionID": "S-10", "donationAmount": "$1,000.05", "causeId": "3", "email": "a@example.com"}

	s, err := Normalize(f, []byte("raw"))
	require.NoError(t, err)

	assert.Equal(t, "S-10", s.OrderNumber)
	assert.False(t, s.GeneratedOrderNumber)
	assert.Equal(t, int64(100005), s.DonationCents)
	assert.Equal(t, int64(3), s.CauseID)
	assert.Equal(t, "usd", s.Currency)
	assert.Equal(t, int64(1), s.Quantity)
	assert.Equal(t, KindDonation, s.Kind())
}

func TestNormalize_CentsPreferredOverMajorUnits(t *testing.T) {
	f := Fields{"product_name": "Print", "amount_total_cents": "2500", "amount": "99.00", "currency": "EUR"}

	s, err := Normalize(f, []byte("raw"))
	require.NoError(t, err)

	assert.Equal(t, int64(2500), s.AmountTotalCents)
	assert.Equal(t, "eur", s.Currency)
	assert.Equal(t, KindOrder, s.Kind())
}

func TestNormalize_FallbackOrderNumberIsDeterministic(t *testing.T) {
	raw := []byte(`{"product":"Mug"}`)

	a, err := Normalize(Fields{"product": "Mug"}, raw)
	require.NoError(t, err)
	b, err := Normalize(Fields{"product": "Mug"}, raw)
	require.NoError(t, err)

	assert.True(t, a.GeneratedOrderNumber)
	assert.Equal(t, a.OrderNumber, b.OrderNumber)
	assert.True(t, strings.HasPrefix(a.OrderNumber, "WH-"))
	assert.Len(t, a.OrderNumber, 19)

	c, err := Normalize(Fields{"product": "Mug"}, []byte(`{"product":"Cup"}`))
	require.NoError(t, err)
	assert.NotEqual(t, a.OrderNumber, c.OrderNumber)
}

func TestNormalize_CauseNameInCauseField(t *testing.T) {
	s, err := Normalize(Fields{"id": "S-11", "donation": "5", "cause": "Clean Water"}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), s.CauseID)
	assert.Equal(t, "Clean Water", s.CauseName)
}

func TestNormalize_InvalidAmount(t *testing.T) {
	_, err := Normalize(Fields{"id": "S-12", "donation": "lots"}, nil)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldDonation, fe.Field)
}

func TestNormalize_InvalidQuantity(t *testing.T) {
	_, err := Normalize(Fields{"id": "S-13", "qty": "-2"}, nil)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldQuantity, fe.Field)
}

func TestSubmission_Kind(t *testing.T) {
	assert.Equal(t, KindBoth, Submission{ProductName: "Mug", DonationCents: 100}.Kind())
	assert.Equal(t, KindNone, Submission{AmountTotalCents: 100}.Kind())
}

func TestParseMajorUnits_Rounding(t *testing.T) {
	c, err := ParseMajorUnits("amount", "7.775")
	require.NoError(t, err)
	assert.Equal(t, int64(778), c)

	_, err = ParseMajorUnits("amount", "-1")
	assert.Error(t, err)
}
