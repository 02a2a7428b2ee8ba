package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/shipchat-core/server/internal/core/error"
	"github.com/shipchat-core/server/internal/orders"
)

// ===================================
// Get Order Tool
// ===================================

type GetOrderInput struct {
	OrderID string `json:"order_id"`
}

func createGetOrderTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetOrder,
			Desc: "Fetch a stored order by its order number, including its addresses and parcel details.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {
					Type:     "string",
					Desc:     "Order number, e.g. ORD-1001.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetOrderInput) (*orders.Order, error) {
			if in.OrderID == "" {
				return nil, fmt.Errorf("order_id is required")
			}
			order := deps.Orders.Get(in.OrderID)
			if order == nil {
				return nil, errx.WrapOrderNotFound(in.OrderID)
			}
			return order, nil
		},
	)
}
