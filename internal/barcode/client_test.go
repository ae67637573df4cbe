package barcode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const knownProduct = `{
	"code": "5000112548167",
	"status": 1,
	"status_verbose": "product found",
	"product": {
		"product_name": "Protein Bar",
		"brands": "Acme",
		"labels": "Vegetarian, Gluten-free",
		"ingredients_text": "milk protein, almonds, cocoa, sweetener",
		"nutriments": {
			"energy-kcal_100g": 361.4,
			"proteins_100g": "33.33",
			"carbohydrates_100g": 8.04,
			"fat_100g": 12,
			"fiber_100g": 14.5,
			"sugars_100g": 1.2,
			"sodium_100g": 0.34,
			"calcium_100g": 0.12,
			"vitamin-c_100g": -1
		}
	}
}`

func offServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/api/v0/product/5000112548167.json":
			w.Write([]byte(knownProduct))
		case "/api/v0/product/0000000000000.json":
			w.Write([]byte(`{"code":"0000000000000","status":0,"status_verbose":"product not found"}`))
		case "/api/v0/product/500.json":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestLookup_KnownBarcode(t *testing.T) {
	server := offServer(t, nil)
	defer server.Close()

	c := NewClient(server.URL+"/", 5*time.Second, nil, testLogger())
	res, err := c.Lookup(context.Background(), " 5000112548167 ")
	require.NoError(t, err)

	assert.Equal(t, 0.95, res.Confidence)
	assert.Equal(t, MethodBarcode, res.Method)
	assert.Equal(t, "Protein Bar", res.FoodName)
	assert.Equal(t, "Acme", res.Brand)
	assert.Equal(t, "5000112548167", res.Barcode)
	assert.Equal(t, "Packaged Food", res.Category)
	assert.Equal(t, "100g", res.ServingSize)
	assert.False(t, res.HasAIGeneratedNutrition)

	assert.Equal(t, 361.0, res.Nutrition.Calories)
	assert.Equal(t, 33.3, res.Nutrition.Protein)
	assert.Equal(t, 8.0, res.Nutrition.Carbs)
	assert.Equal(t, 340.0, res.Nutrition.Sodium)
	assert.Equal(t, 120.0, res.Nutrition.Calcium)
	assert.Equal(t, 0.0, res.Nutrition.VitaminC, "negative values clamp to zero")
	assert.Equal(t, 0.0, res.Nutrition.Iron, "missing values default to zero")

	assert.True(t, res.DietaryInfo.IsVegetarian)
	assert.False(t, res.DietaryInfo.IsVegan)
	assert.True(t, res.DietaryInfo.IsGlutenFree)
	assert.True(t, res.DietaryInfo.IsHighProtein)
	assert.True(t, res.DietaryInfo.IsLowCarb)
	assert.Equal(t, []string{"milk protein", "almonds", "cocoa", "sweetener"}, res.Ingredients)
	assert.Equal(t, 8.0, res.HealthScore)
}

func TestLookup_NotFound(t *testing.T) {
	server := offServer(t, nil)
	defer server.Close()
	c := NewClient(server.URL, 5*time.Second, nil, testLogger())

	for _, code := range []string{"0000000000000", "4006381333931"} {
		t.Run(code, func(t *testing.T) {
			res, err := c.Lookup(context.Background(), code)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.Equal(t, "Could not find product: "+code, err.Error())
		})
	}
}

func TestLookup_TransportErrors(t *testing.T) {
	server := offServer(t, nil)
	defer server.Close()
	c := NewClient(server.URL, 5*time.Second, nil, testLogger())

	_, err := c.Lookup(context.Background(), "500")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = c.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidBarcode)
}

func TestLookup_CatalogFirst(t *testing.T) {
	var hits int32
	server := offServer(t, &hits)
	defer server.Close()

	catalog := NewMockCatalog()
	c := NewClient(server.URL, 5*time.Second, catalog, testLogger())

	res, err := c.Lookup(context.Background(), "8901063010314")
	require.NoError(t, err)
	assert.Equal(t, "Roasted Chana", res.FoodName)
	assert.True(t, res.DietaryInfo.IsVegan)
	assert.True(t, res.DietaryInfo.IsGlutenFree)
	assert.Equal(t, 22.5, res.Nutrition.Protein)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	// not in the catalog: falls through to the API
	res, err = c.Lookup(context.Background(), "5000112548167")
	require.NoError(t, err)
	assert.Equal(t, "Protein Bar", res.FoodName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// catalog failures fall through as well
	catalog.SetError(errors.New("parquet unreadable"))
	_, err = c.Lookup(context.Background(), "8901063010314")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestToScanResult_Defaults(t *testing.T) {
	p := NewMockCatalog().products["3017620422003"]
	p.ProductName = ""
	p.Brands = ""
	res := ToScanResult(&p, "3017620422003", time.Unix(0, 0))

	assert.Equal(t, "Unknown Product", res.FoodName)
	assert.Equal(t, "Unknown Brand", res.Brand)
	assert.Equal(t, 43.0, res.Nutrition.Sodium)
	assert.Len(t, res.Ingredients, 7)
}
