package barcode

import (
	"context"
	"sync"

	"github.com/noot-app/foodlens/internal/types"
)

// MockCatalog is an in-memory Catalog for tests and demos
type MockCatalog struct {
	mu       sync.Mutex
	products map[string]types.Product
	err      error
}

// NewMockCatalog creates a catalog seeded with a couple of well-known products
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products: map[string]types.Product{
			"3017620422003": {
				Code:        "3017620422003",
				ProductName: "Nutella",
				Brands:      "Ferrero",
				Nutriments: map[string]interface{}{
					"energy-kcal_100g":   539.0,
					"fat_100g":           30.9,
					"carbohydrates_100g": 57.5,
					"sugars_100g":        56.3,
					"proteins_100g":      6.3,
					"sodium_100g":        0.0428,
				},
				Labels:          "Vegetarian",
				IngredientsText: "sugar, palm oil, hazelnuts, skimmed milk powder, fat-reduced cocoa, emulsifier, vanillin",
			},
			"8901063010314": {
				Code:        "8901063010314",
				ProductName: "Roasted Chana",
				Brands:      "Test Snacks",
				Nutriments: map[string]interface{}{
					"energy-kcal_100g":   "364",
					"proteins_100g":      "22.5",
					"carbohydrates_100g": "8.2",
					"fiber_100g":         "17",
				},
				LabelsTags: []string{"en:vegan", "en:vegetarian", "en:gluten-free"},
			},
		},
	}
}

func (m *MockCatalog) ProductByBarcode(ctx context.Context, barcode string) (*types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[barcode]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockCatalog) TestConnection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockCatalog) Close() error {
	return nil
}

// SetError makes every following call fail with err
func (m *MockCatalog) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetProduct adds or replaces a product
func (m *MockCatalog) SetProduct(p types.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.Code] = p
}
