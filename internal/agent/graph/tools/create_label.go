package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/shipchat-core/server/internal/core/error"
	"github.com/shipchat-core/server/internal/ship360"
)

// ===================================
// Create Shipping Label Tool
// ===================================

type CreateLabelInput struct {
	OrderID          string `json:"order_id"`
	CarrierAccountID string `json:"carrier_account_id"`
	ServiceID        string `json:"service_id,omitempty"`
	LabelSize        string `json:"label_size,omitempty"`
}

type CreateLabelOutput struct {
	TrackingNumber string `json:"parcelTrackingNumber"`
	ShipmentID     string `json:"shipmentId"`
	LabelURL       string `json:"shipping_label_url"`
}

func createLabelTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCreateLabel,
			Desc: "Create a shipping label for a stored order using the carrier account id (and optionally service id) from a previously selected rate option. Creates a real shipment; never call it twice for the same selection without the user confirming.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {
					Type:     "string",
					Desc:     "Order number of the stored order to ship, e.g. ORD-1001.",
					Required: true,
				},
				"carrier_account_id": {
					Type:     "string",
					Desc:     "Carrier account id from the selected rate option.",
					Required: true,
				},
				"service_id": {
					Type: "string",
					Desc: "Service id from the selected rate option, when available.",
				},
				"label_size": {
					Type: "string",
					Desc: "Physical label size, e.g. DOC_4X6 or DOC_8X11. The provider validates the value.",
				},
			}),
		},
		func(ctx context.Context, in *CreateLabelInput) (*CreateLabelOutput, error) {
			if in.OrderID == "" {
				return nil, fmt.Errorf("order_id is required")
			}
			if in.CarrierAccountID == "" {
				return nil, fmt.Errorf("carrier_account_id is required")
			}

			order := deps.Orders.Get(in.OrderID)
			if order == nil {
				return nil, errx.WrapOrderNotFound(in.OrderID)
			}

			req := ship360.BuildLabelRequest(order.Descriptor(), in.CarrierAccountID, in.ServiceID, in.LabelSize, order.OrderNumber)
			result, err := deps.Ship360.CreateShipment(ctx, req)
			if err != nil {
				return nil, err
			}

			return &CreateLabelOutput{
				TrackingNumber: result.TrackingNumber,
				ShipmentID:     result.ShipmentID,
				LabelURL:       result.LabelContent,
			}, nil
		},
	)
}
