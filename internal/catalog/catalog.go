// Package catalog fetches product display data for the offer UI.
//
// The fetcher issues a single batched query for the offered and free
// variants. Results are only needed for presentation (title, image, price);
// the authoritative discount never depends on them.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Price is a decimal amount with its ISO 4217 currency code. The amount is
// kept as the host's decimal string to avoid float round-tripping.
type Price struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Image is the variant's primary image, if any.
type Image struct {
	URL string `json:"url"`
}

// Variant is the display record for one product variant.
type Variant struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image *Image `json:"image"`
	Price Price  `json:"price"`
}

// Pair holds the two variants the offer is built from. Either slot may be
// nil when the catalog has no record for that id; callers treat a nil slot
// as "cannot offer".
type Pair struct {
	Offered *Variant
	Free    *Variant
}

// Complete reports whether both slots resolved.
func (p Pair) Complete() bool {
	return p.Offered != nil && p.Free != nil
}

// Querier is the host-provided query capability. Implementations send one
// GraphQL document with variables and decode the response data into out.
type Querier interface {
	Query(ctx context.Context, query string, variables map[string]any, out any) error
}

// variantPairQuery batches both variant lookups into one request.
const variantPairQuery = `fragment VariantFields on ProductVariant {
  id
  title
  image {
    url
  }
  price {
    amount
    currencyCode
  }
}

query($offeredProductId: ID!, $freeProductId: ID!) {
  offeredProduct: node(id: $offeredProductId) {
    ... VariantFields
  }
  freeProduct: node(id: $freeProductId) {
    ... VariantFields
  }
}`

// Fetcher retrieves variant display data through a Querier.
type Fetcher struct {
	querier Querier
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. logger may be nil, in which case
// slog.Default() is used.
func NewFetcher(q Querier, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{querier: q, logger: logger}
}

// FetchPair looks up both variants in a single batched request.
//
// A transport failure fails the whole operation; it is logged here and the
// caller suppresses the offer rather than rendering a broken state. A
// missing id is a partial result, not an error: the corresponding slot is
// nil.
func (f *Fetcher) FetchPair(ctx context.Context, offeredID, freeID string) (Pair, error) {
	var data struct {
		OfferedProduct *Variant `json:"offeredProduct"`
		FreeProduct    *Variant `json:"freeProduct"`
	}

	vars := map[string]any{
		"offeredProductId": offeredID,
		"freeProductId":    freeID,
	}
	if err := f.querier.Query(ctx, variantPairQuery, vars, &data); err != nil {
		f.logger.Error("variant fetch failed", "error", err)
		return Pair{}, fmt.Errorf("fetch variant pair: %w", err)
	}

	return Pair{Offered: data.OfferedProduct, Free: data.FreeProduct}, nil
}
