// Package tools defines the fixed set of shipping operations the response
// model may invoke. Each tool is a typed handler over injected services; the
// model only ever selects a tool by name and supplies its parameters.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/orders"
	"github.com/shipchat-core/server/internal/ship360"
)

// Tool names, the dispatcher's lookup keys.
const (
	ToolRateShop      = "rate_shop"
	ToolCreateLabel   = "create_shipping_label"
	ToolTrackShipment = "track_shipment"
	ToolListShipments = "list_shipments"
	ToolCancel        = "cancel_shipment"
	ToolGetOrder      = "get_order"
)

// Deps are the services every shipping tool closes over.
type Deps struct {
	Orders  *orders.Index
	Ship360 *ship360.Client
}

// GetShippingTools returns the full tool set bound to the given services.
func GetShippingTools(deps Deps) []tool.BaseTool {
	return []tool.BaseTool{
		createRateShopTool(deps),
		createLabelTool(deps),
		createTrackShipmentTool(deps),
		createListShipmentsTool(deps),
		createCancelShipmentTool(deps),
		createGetOrderTool(deps),
	}
}

// GetToolInfos resolves the ToolInfo for each tool so they can be bound to
// the response model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
