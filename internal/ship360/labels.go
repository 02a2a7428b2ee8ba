package ship360

import (
	"context"
	"fmt"
	"net/http"

	logx "github.com/shipchat-core/server/pkg/logger"
)

const labelType = "SHIPPING_LABEL"

// BuildLabelRequest copies the descriptor's address and parcel fields into
// the provider's shipment-creation shape. Label size is passed through
// untouched; the provider is the source of truth for valid sizes.
func BuildLabelRequest(descriptor ShipmentDescriptor, carrierAccountID, serviceID, labelSize, orderNumber string) LabelRequest {
	if serviceID == "" {
		serviceID = descriptor.ServiceID
	}
	return LabelRequest{
		Size:             labelSize,
		Type:             labelType,
		FromAddress:      descriptor.FromAddress,
		ToAddress:        descriptor.ToAddress,
		Parcel:           descriptor.Parcel,
		CarrierAccountID: carrierAccountID,
		ParcelType:       descriptor.ParcelType,
		ServiceID:        serviceID,
		ShipmentOptions: ShipmentOptions{
			AddToManifest:      false,
			PackageDescription: fmt.Sprintf("Order %s", orderNumber),
		},
		Metadata: []MetadataItem{
			{Name: "orderNumber", Value: orderNumber},
		},
	}
}

type labelResponse struct {
	ParcelTrackingNumber string `json:"parcelTrackingNumber"`
	ShipmentID           string `json:"shipmentId"`
	LabelLayout          []struct {
		Contents string `json:"contents"`
	} `json:"labelLayout"`
}

// CreateShipment issues the shipment-creation call. It creates a real (or
// sandbox) shipment: repeat calls create duplicate shipments, so the failure
// path is surfaced to the caller instead of retried.
func (c *Client) CreateShipment(ctx context.Context, req LabelRequest) (*LabelResult, error) {
	var resp labelResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.ShipmentsURL, nil, req, &resp); err != nil {
		return nil, err
	}

	result := &LabelResult{
		TrackingNumber: resp.ParcelTrackingNumber,
		ShipmentID:     resp.ShipmentID,
	}
	if len(resp.LabelLayout) > 0 {
		result.LabelContent = resp.LabelLayout[0].Contents
	}

	logx.Info().
		Str("shipment_id", result.ShipmentID).
		Str("tracking_number", result.TrackingNumber).
		Msg("Shipment created")

	return result, nil
}

// CancelShipment cancels the given shipment. Not idempotent; never retried.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*CancellationStatus, error) {
	url := fmt.Sprintf("%s/%s", c.cfg.ShipmentsURL, shipmentID)

	var status CancellationStatus
	if err := c.doJSON(ctx, http.MethodDelete, url, nil, nil, &status); err != nil {
		return nil, err
	}

	logx.Info().
		Str("shipment_id", shipmentID).
		Str("status", status.Status).
		Msg("Shipment cancelled")

	return &status, nil
}
