package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/agent/graph/tools"
	"github.com/shipchat-core/server/internal/agent/model"
)

//go:embed template/response_prompt.txt
var coreSystemPrompt string

// RenderResponseSystem renders the dynamic Response system prompt and triggers prompt callbacks.
func RenderResponseSystem(ctx context.Context, config model.ResponsePromptConfig, extraction *model.ExtractionResult) (string, error) {
	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)

	// Order-based turns extract an empty descriptor; no point embedding it.
	shipmentJSON := ""
	if extraction != nil && !extraction.ParseFailed && hasShipmentContent(extraction) {
		raw, err := json.MarshalIndent(extraction.ShipmentDescriptor, "", "  ")
		if err == nil {
			shipmentJSON = string(raw)
		}
	}

	vars := map[string]any{
		"BusinessName":        config.BusinessName,
		"MaxDisplayedOptions": config.MaxDisplayedOptions,
		"RateShopTool":        tools.ToolRateShop,
		"CreateLabelTool":     tools.ToolCreateLabel,
		"TrackTool":           tools.ToolTrackShipment,
		"ListTool":            tools.ToolListShipments,
		"CancelTool":          tools.ToolCancel,
		"OrderTool":           tools.ToolGetOrder,
		"ShipmentJSON":        shipmentJSON,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func hasShipmentContent(extraction *model.ExtractionResult) bool {
	d := extraction.ShipmentDescriptor
	return d.FromAddress.AddressLine1 != "" ||
		d.ToAddress.AddressLine1 != "" ||
		d.Parcel.Weight > 0
}
