package offer

import (
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/merchkit/freegift/internal/catalog"
)

// PlaceholderImageURL is rendered when the offered product has no image.
const PlaceholderImageURL = "https://cdn.shopify.com/s/files/1/0533/2089/files/placeholder-images-image_medium.png?format=webp&v=1530129081"

// Heading is the offer section title.
const Heading = "Add to your cart to get a free gift!"

// ErrorBannerText is the transient banner shown after a failed apply.
const ErrorBannerText = "There was an issue adding this product. Please try again."

// View is a render-ready snapshot of the machine.
type View struct {
	Phase        Phase  `json:"phase"`
	Heading      string `json:"heading"`
	Title        string `json:"title,omitempty"`
	Price        string `json:"price,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Accepting    bool   `json:"accepting"`
	ErrorVisible bool   `json:"errorVisible"`
	ErrorText    string `json:"errorText,omitempty"`
}

// View returns the current render snapshot. Product fields are populated
// only when the offer is actually shown (Offering, Adding, ErrorShown).
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Phase:   m.phase,
		Heading: Heading,
	}

	switch m.phase {
	case PhaseOffering, PhaseAdding, PhaseErrorShown:
		offered := m.pair.Offered
		v.Title = offered.Title
		v.Price = formatPrice(offered.Price, m.locale)
		v.ImageURL = PlaceholderImageURL
		if offered.Image != nil && offered.Image.URL != "" {
			v.ImageURL = offered.Image.URL
		}
		v.Accepting = m.phase == PhaseAdding
		if m.phase == PhaseErrorShown {
			v.ErrorVisible = true
			v.ErrorText = ErrorBannerText
		}
	}
	return v
}

// formatPrice localizes a decimal amount with its currency symbol for the
// given locale. Unparseable input falls back to the raw amount so the view
// never fails to render.
func formatPrice(p catalog.Price, tag language.Tag) string {
	unit, err := currency.ParseISO(p.CurrencyCode)
	if err != nil {
		return p.Amount
	}
	amount, err := strconv.ParseFloat(p.Amount, 64)
	if err != nil {
		return p.Amount
	}
	printer := message.NewPrinter(tag)
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}
