package categorizer

import (
	"strings"

	"github.com/belegpilot/extraction-service/internal/domain"
)

type keywordRule struct {
	category domain.Category
	keywords []string
}

// Rules are checked in order and the first matching keyword wins, so more
// specific categories must come before broader ones.
var rules = []keywordRule{
	{domain.CategoryGroceries, []string{
		"rewe", "lidl", "aldi", "edeka", "penny", "netto", "kaufland",
		"dm", "rossmann", "supermarkt", "lebensmittel",
	}},
	{domain.CategoryRestaurant, []string{
		"restaurant", "cafe", "café", "bistro", "pizzeria", "mcdonald",
		"burger king", "subway", "kfc", "imbiss", "bäckerei", "baeckerei",
	}},
	{domain.CategoryTransport, []string{
		"uber", "bolt", "taxi", "db ", "deutsche bahn", "bahn", "bvg",
		"tankstelle", "shell", "aral", "esso", "parking", "parkhaus",
	}},
	{domain.CategoryOffice, []string{
		"staples", "office", "büro", "buero", "papier", "druckerei",
		"media markt", "saturn", "conrad",
	}},
	{domain.CategoryAccommodation, []string{
		"hotel", "hostel", "airbnb", "booking", "pension", "motel",
	}},
	{domain.CategoryEntertainment, []string{
		"kino", "cinema", "theater", "konzert", "museum", "spotify",
		"netflix",
	}},
	{domain.CategoryUtilities, []string{
		"telekom", "vodafone", "o2", "stadtwerke", "strom", "gas",
		"wasser", "internet",
	}},
}

// Categorize assigns an expense category by matching keywords against the
// vendor name and the line-item descriptions. Receipts with no match fall
// through to "other".
func Categorize(data *domain.ReceiptData) domain.Category {
	if data == nil {
		return domain.CategoryOther
	}

	var text strings.Builder
	if data.Vendor != nil {
		text.WriteString(*data.Vendor)
	}
	for _, item := range data.LineItems {
		text.WriteString(" ")
		text.WriteString(item.Description)
	}

	haystack := strings.ToLower(text.String())
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(haystack, keyword) {
				return rule.category
			}
		}
	}

	return domain.CategoryOther
}
