package decision

// promoApplied is the exact attribute value that marks an eligible cart.
const promoApplied = "true"

// Eligible reports whether the cart is in the promotional state required
// for the gift to apply.
//
// The check is an exact, case-sensitive comparison of the PromoAttributeKey
// attribute against "true". Absent keys, empty values, "false", and case
// variants are all ineligible. The flag is written verbatim by the
// client-side orchestrator, so no semantic boolean parsing happens here.
func Eligible(cart Cart) bool {
	return cart.Attributes[PromoAttributeKey] == promoApplied
}
