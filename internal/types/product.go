package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Product represents a product from the Open Food Facts database, either from the
// public API or from the parquet dump
type Product struct {
	Code            string                 `json:"code"`
	ProductName     string                 `json:"product_name"`
	Brands          string                 `json:"brands"`
	Nutriments      map[string]interface{} `json:"nutriments"`
	Link            string                 `json:"link,omitempty"`
	Labels          string                 `json:"labels,omitempty"`
	LabelsTags      []string               `json:"labels_tags,omitempty"`
	IngredientsText string                 `json:"ingredients_text,omitempty"`
	ServingSize     string                 `json:"serving_size,omitempty"`
}

// ProductResponse is the envelope returned by /api/v0/product/<code>.json
type ProductResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"`
	StatusVerbose string   `json:"status_verbose"`
	Product       *Product `json:"product"`
}

// Nutriment reads a numeric nutriment. OFF mixes numbers and numeric strings.
func (p *Product) Nutriment(key string) (float64, bool) {
	v, ok := p.Nutriments[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// NutrimentOrZero reads a nutriment, clamping missing and negative values to 0
func (p *Product) NutrimentOrZero(key string) float64 {
	v, ok := p.Nutriment(key)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// HasLabel reports whether one of the comma-separated labels or one of the label
// tags is exactly label, ignoring case
func (p *Product) HasLabel(label string) bool {
	want := strings.TrimSpace(label)
	for _, l := range strings.Split(p.Labels, ",") {
		l = strings.TrimPrefix(strings.TrimSpace(l), "en:")
		if strings.EqualFold(l, want) {
			return true
		}
	}
	tag := "en:" + strings.ReplaceAll(strings.ToLower(want), " ", "-")
	for _, t := range p.LabelsTags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

// IngredientList splits the ingredient text on commas, dropping blanks
func (p *Product) IngredientList(limit int) []string {
	out := []string{}
	for _, part := range strings.Split(p.IngredientsText, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
