package ship360

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GetTracking fetches tracking history for a parcel. The carrier, when
// provided, is uppercased into a query parameter.
func (c *Client) GetTracking(ctx context.Context, trackingNumber, carrier string) (*TrackingInfo, error) {
	rawURL := fmt.Sprintf("%s/%s", c.cfg.TrackingURL, url.PathEscape(trackingNumber))
	if carrier != "" {
		rawURL += "?carrier=" + url.QueryEscape(strings.ToUpper(carrier))
	}

	var info TrackingInfo
	if err := c.doJSON(ctx, http.MethodGet, rawURL, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetShipments lists shipments, appending each filter only when non-empty.
// Date format is the caller's contract; the values pass through untouched.
func (c *Client) GetShipments(ctx context.Context, query ShipmentQuery) (*ShipmentPage, error) {
	params := url.Values{}
	if query.StartDate != "" {
		params.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		params.Set("endDate", query.EndDate)
	}
	if query.Page != "" {
		params.Set("page", query.Page)
	}
	if query.Size != "" {
		params.Set("size", query.Size)
	}

	rawURL := c.cfg.ShipmentsURL
	if encoded := params.Encode(); encoded != "" {
		rawURL += "?" + encoded
	}

	var page ShipmentPage
	if err := c.doJSON(ctx, http.MethodGet, rawURL, nil, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
