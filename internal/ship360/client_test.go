package ship360

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testProvider is an httptest-backed stand-in for the shipping API. Handlers
// are registered per route; the token endpoint is always present.
type testProvider struct {
	server     *httptest.Server
	mux        *http.ServeMux
	tokenCalls int
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()

	p := &testProvider{mux: http.NewServeMux()}
	p.mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	})
	p.server = httptest.NewServer(p.mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testProvider) handle(pattern string, h http.HandlerFunc) {
	p.mux.HandleFunc(pattern, h)
}

func (p *testProvider) client() *Client {
	return New(Config{
		TokenURL:      p.server.URL + "/token",
		TokenUsername: "user",
		TokenPassword: "pass",
		RateShopURL:   p.server.URL + "/rates",
		ShipmentsURL:  p.server.URL + "/shipments",
		TrackingURL:   p.server.URL + "/tracking",
		HTTPTimeout:   5 * time.Second,
	})
}

// validDescriptor returns a descriptor that passes Validate.
func validDescriptor() ShipmentDescriptor {
	return ShipmentDescriptor{
		DateOfShipment: "2026-09-01",
		FromAddress: Address{
			AddressLine1:  "545 Market St",
			CityTown:      "San Francisco",
			StateProvince: "CA",
			PostalCode:    "94105",
			CountryCode:   "US",
		},
		ToAddress: Address{
			AddressLine1:  "1 Main St",
			CityTown:      "New York",
			StateProvince: "NY",
			PostalCode:    "10001",
			CountryCode:   "US",
		},
		Parcel: Parcel{
			Length:     10,
			Width:      6,
			Height:     4,
			DimUnit:    "IN",
			Weight:     2,
			WeightUnit: "LB",
		},
		ParcelType: "PKG",
	}
}
