package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductResponse_Decode(t *testing.T) {
	raw := `{
		"code": "3017620422003",
		"status": 1,
		"product": {
			"code": "3017620422003",
			"product_name": "Nutella",
			"brands": "Ferrero",
			"labels": "Vegetarian, Palm oil",
			"ingredients_text": "sugar, palm oil, hazelnuts 13%, , cocoa",
			"nutriments": {"energy-kcal_100g": 539, "proteins_100g": "6.3", "fat_100g": 30.9}
		}
	}`

	var resp ProductResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.NotNil(t, resp.Product)

	assert.Equal(t, 1, resp.Status)
	assert.Equal(t, "Nutella", resp.Product.ProductName)
	assert.Equal(t, []string{"sugar", "palm oil", "hazelnuts 13%", "cocoa"}, resp.Product.IngredientList(8))
}

func TestProduct_Nutriment(t *testing.T) {
	p := Product{Nutriments: map[string]interface{}{
		"energy-kcal_100g": 539.0,
		"proteins_100g":    "6.3",
		"sodium_100g":      -1.0,
		"fiber_100g":       nil,
		"salt_100g":        "n/a",
		"iron_100g":        2,
	}}

	tests := []struct {
		name   string
		key    string
		want   float64
		wantOK bool
	}{
		{"float value", "energy-kcal_100g", 539, true},
		{"numeric string", "proteins_100g", 6.3, true},
		{"nil value", "fiber_100g", 0, false},
		{"garbage string", "salt_100g", 0, false},
		{"int value", "iron_100g", 2, true},
		{"missing key", "sugars_100g", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Nutriment(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	assert.Equal(t, 0.0, p.NutrimentOrZero("sodium_100g"), "negative values clamp to zero")
}

func TestProduct_HasLabel(t *testing.T) {
	p := Product{Labels: "Organic, Vegan", LabelsTags: []string{"en:gluten-free"}}

	assert.True(t, p.HasLabel("Vegan"))
	assert.True(t, p.HasLabel("Gluten-free"))
	assert.False(t, p.HasLabel("Vegetarian"))

	tests := []struct {
		labels string
		label  string
		want   bool
	}{
		{"Non-vegetarian,Contains egg", "Vegetarian", false},
		{"Not vegan", "Vegan", false},
		{"Vegan friendly", "Vegan", false},
		{"organic , vegetarian", "Vegetarian", true},
		{"en:vegan", "Vegan", true},
		{"", "Vegan", false},
	}
	for _, tt := range tests {
		p := Product{Labels: tt.labels}
		assert.Equal(t, tt.want, p.HasLabel(tt.label), "labels %q, label %q", tt.labels, tt.label)
	}
}

func TestIngredientList_Limit(t *testing.T) {
	p := Product{IngredientsText: "a, b, c, d, e, f, g, h, i, j"}
	assert.Len(t, p.IngredientList(8), 8)
	assert.Len(t, p.IngredientList(0), 10)
}
