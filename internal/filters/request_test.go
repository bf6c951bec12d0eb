package filters

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

func TestParseQuery(t *testing.T) {
	q, err := url.ParseQuery("store=A&store=B&store=C&neighborhood=&weekday=domingo&date_from=2024-01-01&hour_to=14&promotion_only=true")
	require.NoError(t, err)

	req := ParseQuery(q)
	assert.Equal(t, []string{"A", "B", "C"}, req.Stores)
	assert.Empty(t, req.Neighborhoods)
	assert.Equal(t, "2024-01-01", req.DateFrom)
	assert.Equal(t, "true", req.PromotionOnly)

	sel, err := req.Selection()
	require.NoError(t, err)

	stores, ok := sel.ValuesFor(StageStore)
	assert.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, stores)

	_, ok = sel.ValuesFor(StageNeighborhood)
	assert.False(t, ok)

	weekdays, _ := sel.ValuesFor(StageWeekday)
	assert.Equal(t, []string{"Domingo"}, weekdays)

	require.NotNil(t, sel.TimeTo)
	assert.Equal(t, domain.NewClockTime(14, 59, 59), *sel.TimeTo)
	assert.Nil(t, sel.TimeFrom)
	assert.True(t, sel.PromotionOnly)
}

func TestParseQuery_ValuesWithCommas(t *testing.T) {
	q := url.Values{}
	q.Add("product", "Açaí 500ml, granola")
	q.Add("product", "Açaí 300ml")

	sel, err := ParseQuery(q).Selection()
	require.NoError(t, err)
	products, _ := sel.ValuesFor(StageProduct)
	assert.Equal(t, []string{"Açaí 500ml, granola", "Açaí 300ml"}, products)

	rows := []domain.Sale{
		testutil.NewSale(testutil.WithProduct("Açaí 500ml, granola", "Açaí")),
		testutil.NewSale(testutil.WithProduct("Açaí 700ml", "Açaí")),
	}
	result := NewPipeline(nil, nil, nil).Run(context.Background(), rows, sel)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Açaí 500ml, granola", result.Rows[0].Product)
}

func TestSelectionRequest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		req   SelectionRequest
		field string
	}{
		{"inverted dates", SelectionRequest{DateFrom: "2024-02-01", DateTo: "2024-01-01"}, "date_from"},
		{"bad date", SelectionRequest{DateTo: "01/02/2024"}, "date_to"},
		{"inverted hours", SelectionRequest{HourFrom: "15:00", HourTo: "10"}, "hour_from"},
		{"hour out of range", SelectionRequest{HourTo: "24"}, "hour_to"},
		{"promotion not a boolean", SelectionRequest{PromotionOnly: "sim"}, "promotion_only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Selection()
			require.Error(t, err)

			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			details, ok := apiErr.Details.(apperrors.ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.field, details.Field)
		})
	}
}

func TestClockHelpers(t *testing.T) {
	assert.True(t, IsClock("08:30"))
	assert.True(t, IsClock("23"))
	assert.False(t, IsClock("noon"))
	assert.True(t, IsWeekday("sábado"))
	assert.False(t, IsWeekday("Funday"))
}
