package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/belegpilot/extraction-service/internal/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		vendor string
		want   domain.Category
	}{
		{"REWE Markt GmbH", domain.CategoryGroceries},
		{"Lidl Filiale 447", domain.CategoryGroceries},
		{"Pizzeria Napoli", domain.CategoryRestaurant},
		{"Bäckerei Müller", domain.CategoryRestaurant},
		{"Uber Trip", domain.CategoryTransport},
		{"Shell Tankstelle Berlin", domain.CategoryTransport},
		{"Hotel Adlon", domain.CategoryAccommodation},
		{"CineStar Kino", domain.CategoryEntertainment},
		{"Telekom Deutschland", domain.CategoryUtilities},
		{"Media Markt", domain.CategoryOffice},
		{"Unbekannter Laden", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.vendor, func(t *testing.T) {
			vendor := tt.vendor
			got := Categorize(&domain.ReceiptData{Vendor: &vendor})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorizeMissingVendor(t *testing.T) {
	assert.Equal(t, domain.CategoryOther, Categorize(nil))
	assert.Equal(t, domain.CategoryOther, Categorize(&domain.ReceiptData{}))
}

func TestCategorizeMatchesLineItems(t *testing.T) {
	// no vendor, the keyword only appears in an item description
	data := &domain.ReceiptData{
		LineItems: []domain.LineItem{
			{Description: "Uber ride downtown", Total: 14.50},
		},
	}
	assert.Equal(t, domain.CategoryTransport, Categorize(data))

	// vendor match still wins over a later-category item keyword
	vendor := "REWE Markt GmbH"
	data = &domain.ReceiptData{
		Vendor:    &vendor,
		LineItems: []domain.LineItem{{Description: "Parkhaus Ticket", Total: 3.0}},
	}
	assert.Equal(t, domain.CategoryGroceries, Categorize(data))
}

func TestCategorizeIsCaseInsensitive(t *testing.T) {
	vendor := "EDEKA CENTER"
	assert.Equal(t, domain.CategoryGroceries, Categorize(&domain.ReceiptData{Vendor: &vendor}))
}
