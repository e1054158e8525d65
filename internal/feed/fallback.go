package feed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

// Fallback dataset constants. The shape is deterministic; only prices
// and fill levels are randomized.
const (
	fallbackBatchID     = "MX-203"
	fallbackSeats       = 36
	fallbackJoined      = 28
	batteryTarget       = 78
	defaultTarget       = 36
	productsPerCategory = 6
)

var fallbackCategories = []domain.Category{
	{ID: "featured", Name: "Featured", Slug: "featured"},
	{ID: "3-wheel", Name: "3-Wheel Cargo", Slug: "3-wheel"},
	{ID: "2-wheel", Name: "2-Wheel Electric", Slug: "2-wheel"},
	{ID: "batteries", Name: "Batteries", Slug: "batteries"},
	{ID: "parts", Name: "Parts & Accessories", Slug: "parts"},
}

var productCategories = []string{"3-wheel", "2-wheel", "batteries", "parts"}

var productNames = map[string][]string{
	"3-wheel":   {"Cargo Trike 400kg", "Delivery Van E350", "Heavy Loader 600", "Express Cargo 300"},
	"2-wheel":   {"City Scooter 250", "Sport Bike 2000W", "Delivery Scooter", "Mountain E-Bike"},
	"batteries": {"LiFePO4 72V 45Ah", "Lithium 60V 32Ah", "LFP 48V 20Ah", "Power Pack 72V"},
	"parts":     {"Motor 3000W", "Controller 72V", "Charger Fast 20A", "Display LCD Color"},
}

var productSpecs = map[string]string{
	"3-wheel":   "72V 45Ah • 40 km/h • 80-90 km",
	"2-wheel":   "60V 32Ah • 45 km/h • 65 km",
	"batteries": "BMS 100A • 5000 cycles • UN38.3",
	"parts":     "Compatible • Warranty 2yr • CE",
}

// FallbackCategories returns the minimum category set shown when the
// home metadata fetch fails.
func FallbackCategories() []domain.Category {
	out := make([]domain.Category, len(fallbackCategories))
	copy(out, fallbackCategories)
	return out
}

// FallbackBatch synthesizes the fixed hero batch used when the batch
// summary fetch fails: five days to lock, arrival in 26.
func FallbackBatch(now time.Time) domain.Batch {
	b := domain.Batch{
		ID:                  fallbackBatchID,
		Country:             "MX",
		Container:           "20GP",
		Seats:               fallbackSeats,
		Joined:              fallbackJoined,
		OpenAt:              now,
		LockAt:              now.Add(5 * 24 * time.Hour),
		ShipAt:              now.Add(8 * 24 * time.Hour),
		ArriveAt:            now.Add(26 * 24 * time.Hour),
		AvgSavingPerUnit:    600,
		TotalCommunitySaved: 487290,
	}
	b.Normalize()
	return b
}

// FallbackProducts synthesizes six products per category. The shape is
// fixed; prices and batch fill are drawn from rnd so a seeded source
// yields reproducible catalogs in tests.
func FallbackProducts(loc domain.Locale, rnd *rand.Rand) []domain.Product {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	products := make([]domain.Product, 0, len(productCategories)*productsPerCategory)
	imageIndex := 0
	for _, category := range productCategories {
		upper := strings.ToUpper(category)
		names := productNames[category]
		target := defaultTarget
		if category == "batteries" {
			target = batteryTarget
		}
		for i := 0; i < productsPerCategory; i++ {
			basePrice := int64(rnd.Intn(3000) + 500)
			discount := int64(float64(basePrice) * (0.15 + rnd.Float64()*0.1))
			progress := domain.BatchProgress{
				BatchID: fmt.Sprintf("%s-20%d", loc.Country, 3+i),
				Target:  target,
				Joined:  rnd.Intn(target),
			}
			progress.Normalize()

			products = append(products, domain.Product{
				ID:       fmt.Sprintf("%s-%d", upper, 1000+i),
				SKU:      fmt.Sprintf("%s%d", upper, 1000+i),
				Name:     names[i%len(names)],
				Category: category,
				Image:    fmt.Sprintf("/assets/products/placeholder-%02d.jpg", imageIndex%12+1),
				Specs:    productSpecs[category],
				Pricing: domain.ProductPricing{
					Solo:     basePrice,
					Group:    basePrice - discount,
					Currency: loc.Currency,
					Symbol:   loc.Symbol,
					Saving:   discount,
				},
				Batch:    progress,
				Badges:   fallbackBadges(i),
				InStock:  true,
				Featured: i < 2,
			})
			imageIndex++
		}
	}
	return products
}

func fallbackBadges(index int) []string {
	switch index {
	case 0:
		return []string{"HOT"}
	case 1:
		return []string{"NEW"}
	case 2:
		return []string{"-15%"}
	default:
		return nil
	}
}
