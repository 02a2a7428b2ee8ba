package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/ship360"
)

// ===================================
// List Shipments Tool
// ===================================

type ListShipmentsInput struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Page      string `json:"page,omitempty"`
	Size      string `json:"size,omitempty"`
}

func createListShipmentsTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolListShipments,
			Desc: "List shipments, optionally bounded by a date range and paginated. Dates must be ISO 8601 (YYYY-MM-DD).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"start_date": {
					Type: "string",
					Desc: "Earliest shipment date to include, ISO 8601.",
				},
				"end_date": {
					Type: "string",
					Desc: "Latest shipment date to include, ISO 8601.",
				},
				"page": {
					Type: "string",
					Desc: "Page number to fetch.",
				},
				"size": {
					Type: "string",
					Desc: "Page size.",
				},
			}),
		},
		func(ctx context.Context, in *ListShipmentsInput) (*ship360.ShipmentPage, error) {
			return deps.Ship360.GetShipments(ctx, ship360.ShipmentQuery{
				StartDate: in.StartDate,
				EndDate:   in.EndDate,
				Page:      in.Page,
				Size:      in.Size,
			})
		},
	)
}
