package offer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/language"

	"github.com/merchkit/freegift/internal/catalog"
)

func TestView_LoadingAndHidden(t *testing.T) {
	m, _ := newTestMachine(t, &fakeFetcher{pair: catalog.Pair{}}, &fakeApplier{})

	v := m.View()
	assert.Equal(t, PhaseLoading, v.Phase)
	assert.Equal(t, Heading, v.Heading)
	assert.Empty(t, v.Title, "no product fields before data arrives")

	m.Start(context.Background())
	v = m.View()
	assert.Equal(t, PhaseHidden, v.Phase)
	assert.Empty(t, v.Title)
	assert.False(t, v.ErrorVisible)
}

func TestView_OfferingFields(t *testing.T) {
	pair := completePair()
	pair.Offered.Image = &catalog.Image{URL: "https://cdn/mug.png"}
	m, _ := newTestMachine(t, &fakeFetcher{pair: pair}, &fakeApplier{})

	m.Start(context.Background())
	v := m.View()
	require.Equal(t, PhaseOffering, v.Phase)
	assert.Equal(t, "Mug", v.Title)
	assert.Equal(t, "https://cdn/mug.png", v.ImageURL)
	assert.Contains(t, v.Price, "18.99")
	assert.False(t, v.Accepting)
}

func TestView_PlaceholderImageFallback(t *testing.T) {
	m, _ := newTestMachine(t, &fakeFetcher{pair: completePair()}, &fakeApplier{})

	m.Start(context.Background())
	v := m.View()
	assert.Equal(t, PlaceholderImageURL, v.ImageURL)
}

func TestFormatPrice_Localized(t *testing.T) {
	got := formatPrice(catalog.Price{Amount: "18.99", CurrencyCode: "USD"}, language.AmericanEnglish)
	assert.Contains(t, got, "18.99")
	assert.Contains(t, got, "$")
}

func TestFormatPrice_FallsBackOnBadInput(t *testing.T) {
	assert.Equal(t, "18.99",
		formatPrice(catalog.Price{Amount: "18.99", CurrencyCode: "???"}, language.English))
	assert.Equal(t, "not-a-number",
		formatPrice(catalog.Price{Amount: "not-a-number", CurrencyCode: "USD"}, language.English))
}
