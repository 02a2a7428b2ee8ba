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
// Cancel Shipment Tool
// ===================================

type CancelShipmentInput struct {
	ShipmentID string `json:"shipment_id"`
}

func createCancelShipmentTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCancel,
			Desc: "Cancel a shipment by its shipment id and return the cancellation status. Not idempotent; never call it twice for the same shipment without the user confirming.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"shipment_id": {
					Type:     "string",
					Desc:     "The shipment id returned when the label was created.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CancelShipmentInput) (*ship360.CancellationStatus, error) {
			if in.ShipmentID == "" {
				return nil, fmt.Errorf("shipment_id is required")
			}
			return deps.Ship360.CancelShipment(ctx, in.ShipmentID)
		},
	)
}
