// Package orders provides a read-only index of orders loaded once at startup
// from a seed dataset. It stands in for the order system of record.
package orders

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shipchat-core/server/internal/ship360"
	logx "github.com/shipchat-core/server/pkg/logger"
)

//go:embed orders.json
var seedData []byte

// Order is a static order record. Records are never mutated after load.
type Order struct {
	OrderNumber    string          `json:"orderNumber"`
	DateOfShipment string          `json:"dateOfShipment,omitempty"`
	ParcelType     string          `json:"parcelType,omitempty"`
	FromAddress    ship360.Address `json:"fromAddress"`
	ToAddress      ship360.Address `json:"toAddress"`
	Parcel         ship360.Parcel  `json:"parcel"`
}

// Descriptor builds a rate-shop descriptor from the order's stored fields.
func (o *Order) Descriptor() ship360.ShipmentDescriptor {
	return ship360.ShipmentDescriptor{
		DateOfShipment: o.DateOfShipment,
		FromAddress:    o.FromAddress,
		ToAddress:      o.ToAddress,
		Parcel:         o.Parcel,
		ParcelType:     o.ParcelType,
	}
}

// Index is the in-memory order lookup, keyed by order number.
type Index struct {
	byNumber map[string]*Order
}

// Load parses the embedded seed dataset, or the file at path when provided.
func Load(path string) (*Index, error) {
	data := seedData
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read orders file: %w", err)
		}
		data = b
	}

	var records []*Order
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}

	byNumber := make(map[string]*Order, len(records))
	for _, o := range records {
		byNumber[o.OrderNumber] = o
	}

	logx.Info().Int("count", len(byNumber)).Msg("Loaded order index")
	return &Index{byNumber: byNumber}, nil
}

// Get returns the order for the given number, or nil when absent.
func (i *Index) Get(orderNumber string) *Order {
	return i.byNumber[orderNumber]
}

// Len returns the number of indexed orders.
func (i *Index) Len() int {
	return len(i.byNumber)
}
