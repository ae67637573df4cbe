// Package barcode resolves packaged-food barcodes against Open Food Facts and maps
// products into the same ScanResult shape produced by image recognition.
package barcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noot-app/foodlens/internal/nutrition"
	"github.com/noot-app/foodlens/internal/types"
	"github.com/noot-app/foodlens/internal/version"
)

// MethodBarcode is the ScanResult method of barcode lookups
const MethodBarcode = "Barcode Recognition"

var (
	// ErrNotFound matches every *NotFoundError
	ErrNotFound = errors.New("product not found")
	// ErrInvalidBarcode is returned for blank barcodes
	ErrInvalidBarcode = errors.New("invalid barcode")
)

// NotFoundError reports a barcode that no source knows about
type NotFoundError struct {
	Barcode string
}

func (e *NotFoundError) Error() string {
	return "Could not find product: " + e.Barcode
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Catalog is an offline product source. ProductByBarcode returns nil, nil when the
// barcode is not in the catalog.
type Catalog interface {
	ProductByBarcode(ctx context.Context, barcode string) (*types.Product, error)
	TestConnection(ctx context.Context) error
	Close() error
}

// Client looks barcodes up in the optional catalog first, then the OFF API
type Client struct {
	baseURL    string
	httpClient *http.Client
	catalog    Catalog
	log        *slog.Logger
	now        func() time.Time
}

// NewClient creates a lookup client. catalog may be nil.
func NewClient(baseURL string, timeout time.Duration, catalog Catalog, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		catalog:    catalog,
		log:        logger,
		now:        time.Now,
	}
}

// Lookup resolves a barcode. The only error kinds are ErrInvalidBarcode,
// ErrNotFound and transport failures.
func (c *Client) Lookup(ctx context.Context, barcode string) (*types.ScanResult, error) {
	start := time.Now()
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrInvalidBarcode
	}

	if c.catalog != nil {
		p, err := c.catalog.ProductByBarcode(ctx, barcode)
		if err != nil {
			c.log.Warn("catalog lookup failed, using API", "barcode", barcode, "error", err)
		} else if p != nil {
			c.log.Info("barcode resolved from catalog", "barcode", barcode, "duration", time.Since(start))
			return ToScanResult(p, barcode, c.now()), nil
		}
	}

	p, err := c.fetch(ctx, barcode)
	if err != nil {
		return nil, err
	}

	c.log.Info("barcode resolved from API", "barcode", barcode, "product", p.ProductName, "duration", time.Since(start))
	return ToScanResult(p, barcode, c.now()), nil
}

func (c *Client) fetch(ctx context.Context, barcode string) (*types.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open food facts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Barcode: barcode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts returned %s", resp.Status)
	}

	var out types.ProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if out.Status == 0 || out.Product == nil {
		return nil, &NotFoundError{Barcode: barcode}
	}
	return out.Product, nil
}

// nutrimentKeys maps NutrientSet keys to OFF per-100g fields with the factor that
// converts OFF units (kcal, grams) to ours (kcal, grams, milligrams)
var nutrimentKeys = []struct {
	key    string
	field  string
	factor float64
}{
	{"calories", "energy-kcal_100g", 1},
	{"protein", "proteins_100g", 1},
	{"carbs", "carbohydrates_100g", 1},
	{"fat", "fat_100g", 1},
	{"fiber", "fiber_100g", 1},
	{"sugar", "sugars_100g", 1},
	{"sodium", "sodium_100g", 1000},
	{"iron", "iron_100g", 1000},
	{"calcium", "calcium_100g", 1000},
	{"vitaminC", "vitamin-c_100g", 1000},
}

// Nutrition maps a product's per-100g nutriments, applying the rounding policy
func Nutrition(p *types.Product) types.NutrientSet {
	var n types.NutrientSet
	for _, k := range nutrimentKeys {
		n.Set(k.key, p.NutrimentOrZero(k.field)*k.factor)
	}
	return nutrition.RoundSet(n)
}

// ToScanResult maps a product into a single-item ScanResult for 100g
func ToScanResult(p *types.Product, barcode string, now time.Time) *types.ScanResult {
	n := Nutrition(p)

	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = "Unknown Product"
	}
	brand := strings.TrimSpace(p.Brands)
	if brand == "" {
		brand = "Unknown Brand"
	}

	return &types.ScanResult{
		FoodName:        name,
		ItemCount:       1,
		TotalFoodPieces: 1,
		Confidence:      0.95,
		Category:        "Packaged Food",
		ServingSize:     "100g",
		Nutrition:       n,
		HealthScore:     nutrition.HealthScore(n),
		DietaryInfo: types.DietaryInfo{
			IsVegetarian:  p.HasLabel("Vegetarian"),
			IsVegan:       p.HasLabel("Vegan"),
			IsGlutenFree:  p.HasLabel("Gluten-free"),
			IsHighProtein: n.Protein > 15,
			IsLowCarb:     n.Carbs < 10,
		},
		Ingredients: p.IngredientList(8),
		Tips:        "Check product label for complete information",
		Method:      MethodBarcode,
		Timestamp:   now,
		Barcode:     barcode,
		Brand:       brand,
	}
}
