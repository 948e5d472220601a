package decision

// findLine locates the first cart line carrying the given product variant.
//
// Only lines whose merchandise kind is ProductVariant are considered; the
// first match in the cart's native ordering wins, which keeps the result
// deterministic even though lines are otherwise unordered for this purpose.
//
// Absence is an expected, common outcome and is reported via the boolean,
// not an error.
func findLine(cart Cart, variantID string) (CartLine, bool) {
	for _, line := range cart.Lines {
		if line.MerchandiseKind != KindProductVariant {
			continue
		}
		if line.MerchandiseID == variantID {
			return line, true
		}
	}
	return CartLine{}, false
}
