package ship360

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/shipchat-core/server/internal/core/error"
)

func TestBuildLabelRequest(t *testing.T) {
	descriptor := validDescriptor()
	descriptor.ServiceID = "descriptor-svc"

	req := BuildLabelRequest(descriptor, "acct-1", "svc-override", "DOC_4X6", "ORD-1001")

	assert.Equal(t, "DOC_4X6", req.Size)
	assert.Equal(t, "SHIPPING_LABEL", req.Type)
	assert.Equal(t, descriptor.FromAddress, req.FromAddress)
	assert.Equal(t, descriptor.ToAddress, req.ToAddress)
	assert.Equal(t, descriptor.Parcel, req.Parcel)
	assert.Equal(t, "acct-1", req.CarrierAccountID)
	assert.Equal(t, "svc-override", req.ServiceID)
	assert.False(t, req.ShipmentOptions.AddToManifest)
	assert.Equal(t, "Order ORD-1001", req.ShipmentOptions.PackageDescription)
	require.Len(t, req.Metadata, 1)
	assert.Equal(t, "orderNumber", req.Metadata[0].Name)
	assert.Equal(t, "ORD-1001", req.Metadata[0].Value)
}

func TestBuildLabelRequestFallsBackToDescriptorService(t *testing.T) {
	descriptor := validDescriptor()
	descriptor.ServiceID = "descriptor-svc"

	req := BuildLabelRequest(descriptor, "acct-1", "", "", "ORD-1002")
	assert.Equal(t, "descriptor-svc", req.ServiceID)
}

func TestCreateShipment(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/shipments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var got LabelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "SHIPPING_LABEL", got.Type)
		assert.Equal(t, "acct-1", got.CarrierAccountID)

		fmt.Fprint(w, `{
			"parcelTrackingNumber":"1Z999",
			"shipmentId":"shp-123",
			"labelLayout":[{"contents":"base64-label-data"}]
		}`)
	})

	req := BuildLabelRequest(validDescriptor(), "acct-1", "svc", "", "ORD-1001")
	result, err := p.client().CreateShipment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "1Z999", result.TrackingNumber)
	assert.Equal(t, "shp-123", result.ShipmentID)
	assert.Equal(t, "base64-label-data", result.LabelContent)
}

func TestCreateShipmentEmptyLabelLayout(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/shipments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"parcelTrackingNumber":"1Z000","shipmentId":"shp-9","labelLayout":[]}`)
	})

	result, err := p.client().CreateShipment(context.Background(), LabelRequest{})
	require.NoError(t, err)
	assert.Equal(t, "shp-9", result.ShipmentID)
	assert.Empty(t, result.LabelContent)
}

func TestCreateShipmentUpstreamFailureNotRetried(t *testing.T) {
	p := newTestProvider(t)
	var calls int
	p.handle("/shipments", func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"carrier rejected"}`, http.StatusUnprocessableEntity)
	})

	_, err := p.client().CreateShipment(context.Background(), LabelRequest{})
	require.Error(t, err)

	var upstream *errx.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.StatusCode)
	assert.Equal(t, 1, calls, "label creation must never retry")
}

func TestCancelShipment(t *testing.T) {
	p := newTestProvider(t)
	p.handle("/shipments/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/shipments/shp-123", r.URL.Path)
		fmt.Fprint(w, `{"carrier":"UPS","totalCarrierCharge":12.50,"status":"REFUND_REQUESTED","parcelTrackingNumber":"1Z999"}`)
	})

	status, err := p.client().CancelShipment(context.Background(), "shp-123")
	require.NoError(t, err)
	assert.Equal(t, "REFUND_REQUESTED", status.Status)
	assert.Equal(t, "UPS", status.Carrier)
	assert.InDelta(t, 12.50, float64(status.TotalCarrierCharge), 0.001)
}
