package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/ship360"
)

// ===================================
// Track Shipment Tool
// ===================================

type TrackShipmentInput struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier,omitempty"`
}

func createTrackShipmentTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolTrackShipment,
			Desc: "Get tracking status and full event history for a parcel by its tracking number, optionally narrowed to a carrier.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"tracking_number": {
					Type:     "string",
					Desc:     "The parcel tracking number.",
					Required: true,
				},
				"carrier": {
					Type: "string",
					Desc: "Optional carrier name, e.g. USPS, UPS, FEDEX.",
				},
			}),
		},
		func(ctx context.Context, in *TrackShipmentInput) (*ship360.TrackingInfo, error) {
			if in.TrackingNumber == "" {
				return nil, fmt.Errorf("tracking_number is required")
			}
			return deps.Ship360.GetTracking(ctx, in.TrackingNumber, in.Carrier)
		},
	)
}
