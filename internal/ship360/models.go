package ship360

import (
	"encoding/json"
	"strconv"
	"strings"

	errx "github.com/shipchat-core/server/internal/core/error"
)

// Address is the provider's address shape, shared by rate shop and label
// creation payloads.
type Address struct {
	Company       string `json:"company,omitempty"`
	AddressLine1  string `json:"addressLine1"`
	AddressLine2  string `json:"addressLine2,omitempty"`
	AddressLine3  string `json:"addressLine3,omitempty"`
	CityTown      string `json:"cityTown"`
	CountryCode   string `json:"countryCode,omitempty"`
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	PostalCode    string `json:"postalCode"`
	StateProvince string `json:"stateProvince"`
}

// Parcel describes package dimensions and weight.
type Parcel struct {
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	DimUnit    string  `json:"dimUnit"`
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weightUnit"`
}

// ShipmentDescriptor is the rate-shop request body. Treated as immutable once
// handed to RateShop.
type ShipmentDescriptor struct {
	DateOfShipment string  `json:"dateOfShipment,omitempty"`
	FromAddress    Address `json:"fromAddress"`
	ToAddress      Address `json:"toAddress"`
	Parcel         Parcel  `json:"parcel"`
	ParcelType     string  `json:"parcelType,omitempty"`
	ServiceID      string  `json:"serviceId,omitempty"`
}

// Validate checks the fields both addresses and the parcel must carry before
// a rate-shop call is attempted.
func (d *ShipmentDescriptor) Validate() error {
	var missing []string

	checkAddress := func(prefix string, a Address) {
		if a.AddressLine1 == "" {
			missing = append(missing, prefix+".addressLine1")
		}
		if a.CityTown == "" {
			missing = append(missing, prefix+".cityTown")
		}
		if a.StateProvince == "" {
			missing = append(missing, prefix+".stateProvince")
		}
		if a.PostalCode == "" {
			missing = append(missing, prefix+".postalCode")
		}
	}
	checkAddress("fromAddress", d.FromAddress)
	checkAddress("toAddress", d.ToAddress)

	if d.Parcel.Length <= 0 {
		missing = append(missing, "parcel.length")
	}
	if d.Parcel.Width <= 0 {
		missing = append(missing, "parcel.width")
	}
	if d.Parcel.Height <= 0 {
		missing = append(missing, "parcel.height")
	}
	if d.Parcel.Weight <= 0 {
		missing = append(missing, "parcel.weight")
	}

	if len(missing) > 0 {
		return errx.WrapValidation(strings.Join(missing, ", "))
	}
	return nil
}

// ChargeAmount tolerates the provider returning charges as JSON numbers or
// quoted strings. Anything non-numeric decodes to 0, which also serves as the
// sort key for malformed charges.
type ChargeAmount float64

func (c *ChargeAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = ChargeAmount(v)
	return nil
}

// FlexInt tolerates estimated-day counts arriving as numbers or strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		if fv, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			*f = FlexInt(int(fv))
			return nil
		}
		*f = 0
		return nil
	}
	*f = FlexInt(v)
	return nil
}

// DeliveryCommitment is the provider's delivery estimate for a quote.
type DeliveryCommitment struct {
	MinEstimatedNumberOfDays  FlexInt `json:"minEstimatedNumberOfDays,omitempty"`
	MaxEstimatedNumberOfDays  FlexInt `json:"maxEstimatedNumberOfDays,omitempty"`
	EstimatedDeliveryDateTime string  `json:"estimatedDeliveryDateTime,omitempty"`
}

// RateQuote is a single shipping option returned by the rate endpoint.
// Quotes are filtered and sorted but never mutated.
type RateQuote struct {
	Carrier            string             `json:"carrier,omitempty"`
	ServiceID          string             `json:"serviceId,omitempty"`
	ParcelType         string             `json:"parcelType,omitempty"`
	TotalCarrierCharge ChargeAmount       `json:"totalCarrierCharge"`
	CurrencyCode       string             `json:"currencyCode,omitempty"`
	DeliveryCommitment DeliveryCommitment `json:"deliveryCommitment,omitempty"`
	CarrierAccountID   string             `json:"carrierAccountId,omitempty"`
}

// RateShopResult is the filtered, price-sorted outcome of a rate shop.
// FilteredCount is the number of options remaining after the zero-charge and
// max-price filters, before the duration filter; TotalOptions counts the
// final list.
type RateShopResult struct {
	TotalOptions    int         `json:"total_options"`
	FilteredCount   int         `json:"filtered_count"`
	ShippingOptions []RateQuote `json:"shippingOptions"`
}

// ShipmentOptions is the label-creation options block.
type ShipmentOptions struct {
	AddToManifest      bool   `json:"addToManifest"`
	PackageDescription string `json:"packageDescription"`
}

// MetadataItem is a free-form name/value pair attached to a shipment.
type MetadataItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LabelRequest is the provider's shipment-creation payload.
type LabelRequest struct {
	Size             string          `json:"size"`
	Type             string          `json:"type"`
	FromAddress      Address         `json:"fromAddress"`
	ToAddress        Address         `json:"toAddress"`
	Parcel           Parcel          `json:"parcel"`
	CarrierAccountID string          `json:"carrierAccountId"`
	ParcelType       string          `json:"parcelType"`
	ServiceID        string          `json:"serviceId,omitempty"`
	ShipmentOptions  ShipmentOptions `json:"shipmentOptions"`
	Metadata         []MetadataItem  `json:"metadata"`
}

// LabelResult is the subset of the shipment-creation response the caller needs.
type LabelResult struct {
	TrackingNumber string `json:"parcelTrackingNumber"`
	ShipmentID     string `json:"shipmentId"`
	LabelContent   string `json:"labelContent"`
}

// TrackingInfo is the tracking endpoint response. Events pass through
// unmodified.
type TrackingInfo struct {
	TrackingNumber        string          `json:"trackingNumber,omitempty"`
	Status                string          `json:"status,omitempty"`
	EventDescription      string          `json:"eventDescription,omitempty"`
	EstimatedDeliveryDate string          `json:"estimatedDeliveryDate,omitempty"`
	Events                json.RawMessage `json:"events,omitempty"`
}

// ShipmentQuery holds the optional shipment-listing filters. Empty values are
// omitted from the request.
type ShipmentQuery struct {
	StartDate string
	EndDate   string
	Page      string
	Size      string
}

// ShipmentPage is a page of shipment listings. The provider's per-shipment
// shape passes through unmodified.
type ShipmentPage struct {
	Data     json.RawMessage `json:"data,omitempty"`
	PageInfo json.RawMessage `json:"pageInfo,omitempty"`
}

// CancellationStatus is the cancellation response.
type CancellationStatus struct {
	Carrier              string       `json:"carrier,omitempty"`
	TotalCarrierCharge   ChargeAmount `json:"totalCarrierCharge,omitempty"`
	Status               string       `json:"status,omitempty"`
	ParcelTrackingNumber string       `json:"parcelTrackingNumber,omitempty"`
}
