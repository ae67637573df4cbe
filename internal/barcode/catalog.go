package barcode

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/noot-app/foodlens/internal/types"
)

// DuckDBCatalog queries the Open Food Facts parquet dump in place
type DuckDBCatalog struct {
	db          *sql.DB
	parquetPath string
	log         *slog.Logger
}

var _ Catalog = (*DuckDBCatalog)(nil)

// NewDuckDBCatalog opens an in-memory DuckDB that reads parquetPath on demand
func NewDuckDBCatalog(parquetPath string, logger *slog.Logger) (*DuckDBCatalog, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &DuckDBCatalog{db: db, parquetPath: parquetPath, log: logger}, nil
}

func (c *DuckDBCatalog) Close() error {
	return c.db.Close()
}

// ProductByBarcode returns the product with an exact code match, or nil
func (c *DuckDBCatalog) ProductByBarcode(ctx context.Context, barcode string) (*types.Product, error) {
	start := time.Now()

	// nested columns come back as JSON so both the flat and the list-of-struct
	// layouts of the dump decode the same way
	query := `
		SELECT code,
		       to_json(product_name),
		       to_json(brands),
		       to_json(nutriments),
		       to_json(labels_tags),
		       to_json(ingredients_text),
		       to_json(serving_size)
		FROM read_parquet(?)
		WHERE code = ?
		LIMIT 1`

	var code sql.NullString
	var name, brands, nutriments, labels, ingredients, serving sql.NullString
	err := c.db.QueryRowContext(ctx, query, c.parquetPath, barcode).
		Scan(&code, &name, &brands, &nutriments, &labels, &ingredients, &serving)
	if err == sql.ErrNoRows {
		c.log.Debug("barcode not in catalog", "barcode", barcode, "duration", time.Since(start))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog query failed: %w", err)
	}

	p := &types.Product{
		Code:            code.String,
		ProductName:     localizedText(name.String),
		Brands:          localizedText(brands.String),
		Nutriments:      nutrimentMap(nutriments.String),
		LabelsTags:      stringList(labels.String),
		IngredientsText: localizedText(ingredients.String),
		ServingSize:     localizedText(serving.String),
	}
	p.Labels = strings.Join(p.LabelsTags, ",")

	c.log.Debug("catalog hit", "barcode", barcode, "duration", time.Since(start))
	return p, nil
}

// TestConnection checks that the parquet file is readable
func (c *DuckDBCatalog) TestConnection(ctx context.Context) error {
	start := time.Now()
	var count int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM read_parquet(?)`, c.parquetPath).Scan(&count); err != nil {
		return fmt.Errorf("catalog connection test failed: %w", err)
	}
	c.log.Info("catalog ready", "products", count, "duration", time.Since(start))
	return nil
}

// localizedText accepts a JSON string or a [{lang, text}] list, preferring
// "main" then "en" then the first entry
func localizedText(raw string) string {
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	var entries []struct {
		Lang string `json:"lang"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || len(entries) == 0 {
		return ""
	}
	for _, lang := range []string{"main", "en"} {
		for _, e := range entries {
			if e.Lang == lang && e.Text != "" {
				return e.Text
			}
		}
	}
	return entries[0].Text
}

// nutrimentMap accepts a flat object or a [{name, 100g}] list and returns the
// API layout ("<name>_100g" keys)
func nutrimentMap(raw string) map[string]interface{} {
	out := make(map[string]interface{})
	if raw == "" || raw == "null" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out
	}
	var entries []struct {
		Name   string   `json:"name"`
		Per100 *float64 `json:"100g"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return make(map[string]interface{})
	}
	out = make(map[string]interface{}, len(entries))
	for _, e := range entries {
		if e.Per100 != nil {
			out[e.Name+"_100g"] = *e.Per100
		}
	}
	return out
}

func stringList(raw string) []string {
	var out []string
	if raw == "" || raw == "null" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
