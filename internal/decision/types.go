package decision

// PromoAttributeKey is the cart attribute that gates the free-gift discount.
//
// The client-side orchestrator (internal/cartops) writes this attribute with
// the literal value "true" when the shopper accepts the offer; Eligible reads
// it back with an exact string comparison. Writer and reader must stay
// symmetric, so neither side does any boolean coercion.
const PromoAttributeKey = "__IsUpsellPromo"

// MerchandiseKind distinguishes product-variant lines from everything else
// the host may place in a cart (gift cards, custom items).
type MerchandiseKind string

const (
	// KindProductVariant marks a line whose merchandise is a product variant.
	KindProductVariant MerchandiseKind = "ProductVariant"
	// KindOther marks any non-variant merchandise. Such lines never match.
	KindOther MerchandiseKind = "Other"
)

// CartLine is one merchandise entry in the shopper's cart.
// Lines are owned by the host and read-only to this package.
type CartLine struct {
	MerchandiseID   string          `json:"merchandiseId"`
	MerchandiseKind MerchandiseKind `json:"merchandiseKind"`
	Quantity        int             `json:"quantity"`
}

// Cart is the cart snapshot supplied fresh on every evaluation.
// The engine never mutates it.
type Cart struct {
	Lines []CartLine `json:"lines"`

	// Attributes holds cart-level key/value attributes, notably the
	// promo flag under PromoAttributeKey.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Metafield carries the serialized merchant configuration attached to the
// discount definition.
type Metafield struct {
	Value string `json:"value"`
}

// DiscountNode is the discount definition the evaluation runs under.
// The metafield is optional; its absence is a normal input.
type DiscountNode struct {
	Metafield *Metafield `json:"metafield,omitempty"`
}

// Input is the host-shaped evaluation input.
type Input struct {
	Cart         Cart          `json:"cart"`
	DiscountNode *DiscountNode `json:"discountNode,omitempty"`
}

// MetafieldValue returns the raw configuration blob, or "" when the host
// supplied no discount node or no metafield.
func (in Input) MetafieldValue() string {
	if in.DiscountNode == nil || in.DiscountNode.Metafield == nil {
		return ""
	}
	return in.DiscountNode.Metafield.Value
}

// Strategy selects how the host combines this decision with discounts
// computed elsewhere.
type Strategy string

const (
	// StrategyFirst applies the first applicable discount. It is the
	// strategy of the empty decision, where the value is irrelevant
	// because there is nothing to apply.
	StrategyFirst Strategy = "FIRST"

	// StrategyMaximum lets the host pick whichever discount yields the
	// greatest reduction. Used on success so the free gift composes with
	// other discount lines.
	StrategyMaximum Strategy = "MAXIMUM"
)

// DiscountLine is a single percentage-off application against one variant.
type DiscountLine struct {
	// Percentage is the reduction in the range 0..100.
	Percentage int `json:"percentage"`

	// TargetVariantID is the product variant the percentage applies to.
	TargetVariantID string `json:"targetVariantId"`

	// Message is the shopper-visible label for the discount.
	Message string `json:"message"`
}

// Decision is the sole output of the engine, re-derived from scratch on
// every call.
type Decision struct {
	Strategy  Strategy       `json:"discountApplicationStrategy"`
	Discounts []DiscountLine `json:"discounts"`
}

// Empty returns the canonical empty decision: strategy First, no discounts.
//
// The discounts slice is non-nil so the JSON rendering is identical across
// every empty outcome ("discounts":[]).
func Empty() Decision {
	return Decision{Strategy: StrategyFirst, Discounts: []DiscountLine{}}
}

// giftMessage is the shopper-visible label on the free line.
const giftMessage = "Free Gift"
