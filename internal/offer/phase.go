package offer

// Phase is the visual/interaction state of the offer component.
type Phase string

const (
	// PhaseLoading is the initial phase, entered once per instance while
	// the product data fetch is pending.
	PhaseLoading Phase = "loading"

	// PhaseHidden renders nothing: product data could not be resolved, or
	// the shopper already holds the offered product.
	PhaseHidden Phase = "hidden"

	// PhaseOffering renders the offer with an actionable accept control.
	PhaseOffering Phase = "offering"

	// PhaseAdding is active while the cart mutations are in flight.
	PhaseAdding Phase = "adding"

	// PhaseErrorShown renders the offer plus a transient error banner
	// after a failed apply. It auto-clears back to PhaseOffering.
	PhaseErrorShown Phase = "error_shown"
)
