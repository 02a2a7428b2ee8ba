package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipchat-core/server/internal/agent/graph/tools"
)

func sanitized(t *testing.T, name, args string) map[string]any {
	t.Helper()
	out, err := sanitizeToolArguments(context.Background(), name, args)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	return m
}

func TestSanitizeRateShopCoercesNumericStrings(t *testing.T) {
	m := sanitized(t, tools.ToolRateShop, `{
		"order_id": "  ORD-1001  ",
		"max_price": "15.50",
		"duration_value": "3",
		"duration_operator": " less_than "
	}`)

	assert.Equal(t, "ORD-1001", m["order_id"])
	assert.Equal(t, 15.50, m["max_price"])
	assert.Equal(t, float64(3), m["duration_value"])
	assert.Equal(t, "less_than", m["duration_operator"])
}

func TestSanitizeRateShopDropsUnparseableNumbers(t *testing.T) {
	m := sanitized(t, tools.ToolRateShop, `{"order_id":"ORD-1001","max_price":"cheap","duration_value":"soon"}`)

	assert.NotContains(t, m, "max_price")
	assert.NotContains(t, m, "duration_value")
}

func TestSanitizeListShipmentsNormalizesPaging(t *testing.T) {
	m := sanitized(t, tools.ToolListShipments, `{"start_date":" 2026-08-01 ","page":2,"size":"25"}`)

	assert.Equal(t, "2026-08-01", m["start_date"])
	assert.Equal(t, "2", m["page"])
	assert.Equal(t, "25", m["size"])
}

func TestSanitizeKeepsNonJSONArguments(t *testing.T) {
	out, err := sanitizeToolArguments(context.Background(), tools.ToolRateShop, `not json at all`)
	require.NoError(t, err)
	assert.Equal(t, `not json at all`, out)
}

func TestSanitizeTrimStringFields(t *testing.T) {
	m := sanitized(t, tools.ToolTrackShipment, `{"tracking_number":" 1Z999 ","carrier":" ups "}`)
	assert.Equal(t, "1Z999", m["tracking_number"])
	assert.Equal(t, "ups", m["carrier"])

	m = sanitized(t, tools.ToolCancel, `{"shipment_id":" shp-1 "}`)
	assert.Equal(t, "shp-1", m["shipment_id"])
}
