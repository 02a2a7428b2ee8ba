package ship360

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrackingUppercasesCarrier(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/tracking/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tracking/1Z999", r.URL.Path)
		require.Equal(t, "UPS", r.URL.Query().Get("carrier"))
		fmt.Fprint(w, `{
			"trackingNumber":"1Z999",
			"status":"IN_TRANSIT",
			"eventDescription":"Departed facility",
			"events":[{"date":"2026-08-29","description":"Departed facility"}]
		}`)
	})

	info, err := p.client().GetTracking(context.Background(), "1Z999", "ups")
	require.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", info.Status)
	assert.Equal(t, "Departed facility", info.EventDescription)
	assert.JSONEq(t, `[{"date":"2026-08-29","description":"Departed facility"}]`, string(info.Events))
}

func TestGetTrackingOmitsEmptyCarrier(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/tracking/", func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["carrier"]
		assert.False(t, present, "empty carrier must not appear in the query")
		fmt.Fprint(w, `{"trackingNumber":"1Z000","status":"DELIVERED"}`)
	})

	info, err := p.client().GetTracking(context.Background(), "1Z000", "")
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", info.Status)
}

func TestGetShipmentsQueryParams(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/shipments", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-08-01", q.Get("startDate"))
		assert.Equal(t, "2026-08-30", q.Get("endDate"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("size"))
		fmt.Fprint(w, `{"data":[{"shipmentId":"shp-1"}],"pageInfo":{"page":2}}`)
	})

	page, err := p.client().GetShipments(context.Background(), ShipmentQuery{
		StartDate: "2026-08-01",
		EndDate:   "2026-08-30",
		Page:      "2",
		Size:      "25",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"shipmentId":"shp-1"}]`, string(page.Data))
	assert.JSONEq(t, `{"page":2}`, string(page.PageInfo))
}

func TestGetShipmentsOmitsEmptyFilters(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/shipments", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := p.client().GetShipments(context.Background(), ShipmentQuery{})
	require.NoError(t, err)
}
