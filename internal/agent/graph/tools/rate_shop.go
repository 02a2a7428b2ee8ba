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
// Rate Shop Tool
// ===================================

type RateShopInput struct {
	OrderID          string                      `json:"order_id,omitempty"`
	Shipment         *ship360.ShipmentDescriptor `json:"shipment,omitempty"`
	MaxPrice         float64                     `json:"max_price,omitempty"`
	DurationValue    int                         `json:"duration_value,omitempty"`
	DurationOperator string                      `json:"duration_operator,omitempty"`
}

func createRateShopTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRateShop,
			Desc: "Shop shipping rates for an order or an explicit shipment. Returns shipping options sorted by price ascending, with carrier, service, cost, delivery estimate and carrier account id. Provide either order_id (preferred when the user references a stored order) or the shipment object from the extracted shipment section.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {
					Type: "string",
					Desc: "Order number of a stored order, e.g. ORD-1001. Leave empty when passing a shipment object.",
				},
				"shipment": {
					Type: "object",
					Desc: "Shipment descriptor JSON, exactly as given in the extracted shipment section of the system prompt: dateOfShipment, fromAddress, toAddress, parcel, parcelType.",
				},
				"max_price": {
					Type: "number",
					Desc: "Maximum total price for shipping options. 0 or omitted means no price limit.",
				},
				"duration_value": {
					Type: "number",
					Desc: "Maximum delivery duration in days. 0 or omitted means no duration limit.",
				},
				"duration_operator": {
					Type: "string",
					Desc: "Comparison operator for the duration limit: less_than or less_than_or_equal (default).",
				},
			}),
		},
		func(ctx context.Context, in *RateShopInput) (*ship360.RateShopResult, error) {
			var descriptor ship360.ShipmentDescriptor
			switch {
			case in.OrderID != "":
				order := deps.Orders.Get(in.OrderID)
				if order == nil {
					return nil, errx.WrapOrderNotFound(in.OrderID)
				}
				descriptor = order.Descriptor()
			case in.Shipment != nil:
				descriptor = *in.Shipment
			default:
				return nil, fmt.Errorf("either order_id or shipment is required")
			}

			return deps.Ship360.RateShop(ctx, descriptor, ship360.RateShopOptions{
				MaxPrice:         in.MaxPrice,
				DurationValue:    in.DurationValue,
				DurationOperator: ship360.ParseComparisonOperator(in.DurationOperator),
			})
		},
	)
}
