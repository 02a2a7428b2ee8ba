package ship360

import (
	"context"
	"net/http"
	"sort"

	logx "github.com/shipchat-core/server/pkg/logger"
)

// ComparisonOperator selects how the duration filter compares estimated days
// against the requested bound.
type ComparisonOperator string

const (
	LessThan        ComparisonOperator = "less_than"
	LessThanOrEqual ComparisonOperator = "less_than_or_equal"
)

// ParseComparisonOperator normalises a free-form operator string, defaulting
// to less_than_or_equal.
func ParseComparisonOperator(s string) ComparisonOperator {
	if ComparisonOperator(s) == LessThan {
		return LessThan
	}
	return LessThanOrEqual
}

// RateShopOptions are the optional user-supplied filters for a rate shop.
// Zero values disable the corresponding filter.
type RateShopOptions struct {
	MaxPrice         float64
	DurationValue    int
	DurationOperator ComparisonOperator
}

type rateResponse struct {
	Rates []RateQuote `json:"rates"`
}

// RateShop posts the descriptor to the rate endpoint and applies the
// filtering and sorting pipeline:
//
//  1. quotes with totalCarrierCharge <= 0 are dropped unconditionally
//  2. quotes above MaxPrice are dropped when MaxPrice > 0
//  3. when DurationValue > 0, a quote survives if either its min or its max
//     estimated days satisfies the operator (best case may meet the bound)
//  4. survivors are sorted ascending by charge
//
// FilteredCount reflects the list after steps 1-2; TotalOptions after step 3.
// A missing or malformed rates list yields an empty result, not an error.
func (c *Client) RateShop(ctx context.Context, descriptor ShipmentDescriptor, opts RateShopOptions) (*RateShopResult, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	headers := map[string]string{"compactResponse": "true"}
	var resp rateResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.RateShopURL, headers, descriptor, &resp); err != nil {
		return nil, err
	}

	options := make([]RateQuote, 0, len(resp.Rates))
	for _, q := range resp.Rates {
		if q.TotalCarrierCharge <= 0 {
			continue
		}
		if opts.MaxPrice > 0 && float64(q.TotalCarrierCharge) > opts.MaxPrice {
			continue
		}
		options = append(options, q)
	}
	filteredCount := len(options)

	final := options
	if opts.DurationValue > 0 {
		op := opts.DurationOperator
		if op == "" {
			op = LessThanOrEqual
		}
		final = make([]RateQuote, 0, len(options))
		for _, q := range options {
			minDays := int(q.DeliveryCommitment.MinEstimatedNumberOfDays)
			maxDays := int(q.DeliveryCommitment.MaxEstimatedNumberOfDays)
			if durationSatisfied(op, minDays, maxDays, opts.DurationValue) {
				final = append(final, q)
			}
		}
	}

	sort.SliceStable(final, func(i, j int) bool {
		return final[i].TotalCarrierCharge < final[j].TotalCarrierCharge
	})

	logx.Debug().
		Int("total_options", len(final)).
		Int("filtered_count", filteredCount).
		Msg("Rate shop complete")

	return &RateShopResult{
		TotalOptions:    len(final),
		FilteredCount:   filteredCount,
		ShippingOptions: final,
	}, nil
}

// durationSatisfied applies OR semantics over the min and max estimates: a
// quote whose best case meets the constraint passes even when its worst case
// does not.
func durationSatisfied(op ComparisonOperator, minDays, maxDays, bound int) bool {
	switch op {
	case LessThan:
		return minDays < bound || maxDays < bound
	default:
		return minDays <= bound || maxDays <= bound
	}
}
