package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopelog_backend/internal/model"
	"hopelog_backend/pkg/paypal"
)

func TestAddIntervalMonth(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	end := AddInterval(start, model.PlanIntervalMonth)
	assert.Equal(t, time.Date(2026, 2, 15, 10, 30, 0, 0, time.UTC), end)
}

func TestAddIntervalYear(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	end := AddInterval(start, model.PlanIntervalYear)
	assert.Equal(t, time.Date(2027, 1, 15, 10, 30, 0, 0, time.UTC), end)
}

func TestAddIntervalMonthEndNormalizes(t *testing.T) {
	// AddDate keeps Go's native calendar-add semantics: Jan 31 + 1 month
	// normalizes past the end of February.
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	end := AddInterval(start, model.PlanIntervalMonth)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), end)
}

func TestAddIntervalUnknownDefaultsToMonth(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.AddDate(0, 1, 0), AddInterval(start, ""))
}

func TestCaptureMetadataIncludesPaymentSource(t *testing.T) {
	capture := &paypal.CaptureResult{
		ID:            "ORDER123",
		Status:        "COMPLETED",
		PaymentSource: json.RawMessage(`{"paypal":{"email_address":"buyer@example.test"}}`),
	}

	data := captureMetadata(capture)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ORDER123", decoded["id"])
	assert.Equal(t, "COMPLETED", decoded["status"])
	assert.NotNil(t, decoded["payment_source"])
}

func TestCaptureMetadataWithoutPaymentSource(t *testing.T) {
	capture := &paypal.CaptureResult{ID: "ORDER123", Status: "COMPLETED"}

	data := captureMetadata(capture)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["payment_source"])
}
